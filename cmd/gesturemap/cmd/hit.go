package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/codepanda/gestureimage/internal/area"
)

var hitFile string

var hitCmd = &cobra.Command{
	Use:   "hit <x> <y>",
	Short: "Find the region containing an image-space point",
	Long: `Hit test one point in image coordinates. The first region in file
order that contains the point wins.

Examples:
  gesturemap hit 200 60
  gesturemap hit 120 40 --file maps.xml --map floor`,
	Args: cobra.ExactArgs(2),
	RunE: runHit,
}

func init() {
	rootCmd.AddCommand(hitCmd)

	hitCmd.Flags().StringVarP(&hitFile, "file", "f", "", "map file (default: built-in sample)")
}

func runHit(cmd *cobra.Command, args []string) error {
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid y: %w", err)
	}

	m, reg, err := openMap(hitFile, mapName)
	if err != nil {
		return err
	}
	catalog := area.NewCatalog()
	catalog.Load(m.Areas)

	out := cmd.OutOrStdout()
	r, ok := catalog.RegionAt(x, y)
	if !ok {
		fmt.Fprintf(out, "(%g, %g): no region\n", x, y)
		return nil
	}
	symbol, _ := reg.Name(r.ID)
	fmt.Fprintf(out, "(%g, %g): %s id=%d symbol=%s name=%q\n", x, y, r.Shape.Kind(), r.ID, symbol, r.Name)
	return nil
}
