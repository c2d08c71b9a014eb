package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/mapfile"
)

var areasJSON bool

var areasCmd = &cobra.Command{
	Use:   "areas [map-file]",
	Short: "List the regions of a map",
	Long: `Load a map into a region catalog and list what was accepted, in hit
test order, followed by every area that was skipped and why. Without a
file the built-in sample maps are used.

Examples:
  gesturemap areas
  gesturemap areas maps.xml --map floor --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAreas,
}

func init() {
	rootCmd.AddCommand(areasCmd)

	areasCmd.Flags().BoolVar(&areasJSON, "json", false, "print JSON instead of a table")
}

type regionRow struct {
	ID     int         `json:"id"`
	Symbol string      `json:"symbol,omitempty"`
	Name   string      `json:"name,omitempty"`
	Kind   area.Kind   `json:"kind"`
	Origin [2]float64  `json:"origin"`
	Bounds area.Bounds `json:"bounds"`
	Area   float64     `json:"area"`
}

func rows(catalog *area.Catalog, reg *mapfile.IDRegistry) []regionRow {
	regions := catalog.Regions()
	out := make([]regionRow, 0, len(regions))
	for _, r := range regions {
		x, y := r.Origin()
		symbol, _ := reg.Name(r.ID)
		out = append(out, regionRow{
			ID:     r.ID,
			Symbol: symbol,
			Name:   r.Name,
			Kind:   r.Shape.Kind(),
			Origin: [2]float64{x, y},
			Bounds: r.Shape.Bounds(),
			Area:   r.Shape.Area(),
		})
	}
	return out
}

func runAreas(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	m, reg, err := openMap(path, mapName)
	if err != nil {
		return err
	}

	catalog := area.NewCatalog()
	report := catalog.Load(m.Areas)
	out := cmd.OutOrStdout()

	if areasJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Name    string      `json:"name"`
			Regions []regionRow `json:"regions"`
			Skipped []area.Skip `json:"skipped,omitempty"`
		}{m.Name, rows(catalog, reg), report.Skipped})
	}

	fmt.Fprintf(out, "Map %s: %d region(s), %d skipped\n\n", m.Name, report.Loaded, len(report.Skipped))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSYMBOL\tKIND\tORIGIN\tAREA\tNAME")
	for _, r := range rows(catalog, reg) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t(%g, %g)\t%.1f\t%s\n",
			r.ID, r.Symbol, r.Kind, r.Origin[0], r.Origin[1], r.Area, r.Name)
	}
	tw.Flush()

	if len(report.Skipped) > 0 {
		fmt.Fprintln(out, "\nSkipped:")
		for _, s := range report.Skipped {
			fmt.Fprintf(out, "  #%d (id %d): %s\n", s.Index, s.ID, s.Reason)
		}
	}
	return nil
}
