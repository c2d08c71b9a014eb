package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codepanda/gestureimage/internal/mapfile"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in-file> <out-file>",
	Short: "Rewrite a map file in another format",
	Long: `Read every map from a file and write it out again. Formats follow the
file extensions (.xml, .toml, .json). Symbolic ids are preserved.

Examples:
  gesturemap convert maps.xml maps.toml`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, outPath := args[0], args[1]

	format, err := mapfile.FormatFromPath(outPath)
	if err != nil {
		return err
	}

	reg := mapfile.NewIDRegistry()
	maps, err := mapfile.LoadAll(in, reg)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := mapfile.Encode(f, format, maps, reg); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d map(s) to %s\n", len(maps), outPath)
	return nil
}
