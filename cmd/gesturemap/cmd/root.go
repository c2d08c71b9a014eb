package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codepanda/gestureimage/internal/mapfile"
)

var (
	// Global flags
	verbose bool
	mapName string
)

var rootCmd = &cobra.Command{
	Use:   "gesturemap",
	Short: "Inspect region maps and replay gesture traces",
	Long: `Tools for the clickable region maps laid over gesture images.

Examples:
  gesturemap areas maps.xml --map floor          # List the regions of a map
  gesturemap hit 120 40 -f maps.xml --map floor  # Which region holds a point
  gesturemap replay trace.toml                   # Run a recorded gesture
  gesturemap convert maps.xml maps.toml          # Rewrite a map file`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&mapName, "map", "m", mapfile.SampleName,
		"name of the map inside the file")
}

// openMap reads the selected map from path, or the built-in sample maps
// when path is empty.
func openMap(path, name string) (*mapfile.Map, *mapfile.IDRegistry, error) {
	reg := mapfile.NewIDRegistry()

	var (
		maps []mapfile.Map
		err  error
	)
	if path == "" {
		maps, err = mapfile.SampleMaps(reg)
	} else {
		maps, err = mapfile.LoadAll(path, reg)
	}
	if err != nil {
		return nil, nil, err
	}

	m, err := mapfile.Find(maps, name)
	if err != nil {
		if len(maps) == 1 && !rootCmd.PersistentFlags().Changed("map") {
			return &maps[0], reg, nil
		}
		return nil, nil, err
	}
	return m, reg, nil
}
