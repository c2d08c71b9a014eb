package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/asset"
	"github.com/codepanda/gestureimage/internal/engine"
	"github.com/codepanda/gestureimage/internal/mapfile"
)

var (
	replayViewport  string
	replayContent   string
	replayImage     string
	replayThreshold int
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace.toml>",
	Short: "Feed a recorded pointer trace through a gesture surface",
	Long: `Replay pointer samples from a TOML trace and print every matrix, tap
and region hit the surface produces.

A trace looks like:

  map = "sample"          # optional, map to load
  map_file = "maps.xml"   # optional, relative to the trace
  image = "photo.png"     # optional, content size is read from it

  [viewport]
  width = 400.0
  height = 300.0

  [[sample]]
  phase = "down"
  x = 200.0
  y = 60.0

Flags override the values in the trace.

Examples:
  gesturemap replay pinch.toml
  gesturemap replay tap.toml --viewport 800x600 --image floor.png`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayViewport, "viewport", "", "viewport size as WxH")
	replayCmd.Flags().StringVar(&replayContent, "content", "", "content size as WxH")
	replayCmd.Flags().StringVar(&replayImage, "image", "", "image to read the content size from")
	replayCmd.Flags().IntVar(&replayThreshold, "click-threshold", engine.DefaultClickThreshold,
		"maximum per-axis movement in pixels for a tap")
}

type size struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type tracePointer struct {
	ID int     `toml:"id"`
	X  float64 `toml:"x"`
	Y  float64 `toml:"y"`
}

type traceSample struct {
	Phase    engine.Phase   `toml:"phase"`
	ID       int            `toml:"id"`
	X        float64        `toml:"x"`
	Y        float64        `toml:"y"`
	Pointers []tracePointer `toml:"pointers"`
}

// Trace is a recorded gesture session.
type Trace struct {
	Map      string        `toml:"map"`
	MapFile  string        `toml:"map_file"`
	Image    string        `toml:"image"`
	Viewport size          `toml:"viewport"`
	Content  size          `toml:"content"`
	Samples  []traceSample `toml:"sample"`
}

func (s traceSample) sample() engine.Sample {
	out := engine.Sample{Phase: s.Phase, ID: s.ID, X: s.X, Y: s.Y}
	for _, p := range s.Pointers {
		out.Pointers = append(out.Pointers, engine.Pointer{ID: p.ID, X: p.X, Y: p.Y})
	}
	return out
}

// parseSize reads "WxH".
func parseSize(s string) (size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return size{}, fmt.Errorf("size %q: want WxH", s)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return size{}, fmt.Errorf("size %q: %w", s, err)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return size{}, fmt.Errorf("size %q: %w", s, err)
	}
	return size{width, height}, nil
}

func imageSize(path string) (size, error) {
	f, err := os.Open(path)
	if err != nil {
		return size{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	c, _, err := asset.Dimensions(f)
	if err != nil {
		return size{}, fmt.Errorf("%s: %w", path, err)
	}
	return size{c.Width, c.Height}, nil
}

// relative resolves p against the directory of the trace file.
func relative(tracePath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(tracePath), p)
}

// LoadTrace reads a trace file and applies the command line overrides.
func LoadTrace(path string) (*Trace, error) {
	var tr Trace
	if _, err := toml.DecodeFile(path, &tr); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	tr.MapFile = relative(path, tr.MapFile)
	tr.Image = relative(path, tr.Image)

	var err error
	if replayViewport != "" {
		if tr.Viewport, err = parseSize(replayViewport); err != nil {
			return nil, err
		}
	}
	if replayImage != "" {
		tr.Image = replayImage
	}
	if replayContent != "" {
		if tr.Content, err = parseSize(replayContent); err != nil {
			return nil, err
		}
	} else if tr.Image != "" {
		if tr.Content, err = imageSize(tr.Image); err != nil {
			return nil, err
		}
	}
	return &tr, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	tr, err := LoadTrace(args[0])
	if err != nil {
		return err
	}

	opts := engine.DefaultOptions()
	opts.ClickThreshold = replayThreshold
	if err := opts.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	surface := engine.NewSurface(opts)

	var reg *mapfile.IDRegistry
	if tr.Map != "" || tr.MapFile != "" {
		name := tr.Map
		if name == "" {
			name = mapName
		}
		var m *mapfile.Map
		m, reg, err = openMap(tr.MapFile, name)
		if err != nil {
			return err
		}
		report := surface.LoadRegions(m.Areas)
		fmt.Fprintf(out, "map %s: %d region(s), %d skipped\n", m.Name, report.Loaded, len(report.Skipped))
		if tr.Content.Width <= 0 && m.Width > 0 {
			tr.Content = size{m.Width, m.Height}
		}
	}

	stats := attach(surface, reg, out)

	v := engine.Viewport{Width: tr.Viewport.Width, Height: tr.Viewport.Height}
	c := engine.Content{Width: tr.Content.Width, Height: tr.Content.Height}
	if !surface.Initialize(v, c) {
		return fmt.Errorf("viewport %gx%g and content %gx%g must both be non-empty",
			v.Width, v.Height, c.Width, c.Height)
	}

	for i, s := range tr.Samples {
		sample := s.sample()
		fmt.Fprintf(out, "#%d %s (%g, %g)\n", i+1, sample.Phase, sample.X, sample.Y)
		surface.Handle(sample)
	}

	st := surface.State()
	fmt.Fprintf(out, "final scale=%.3f rotation=%.1f focus=(%.1f, %.1f) taps=%d hits=%d\n",
		st.Scale, st.Rotation, st.FocusX, st.FocusY, stats.taps, stats.hits)
	return nil
}

type replayStats struct {
	taps int
	hits int
}

// attach prints surface notifications to out as they happen.
func attach(s *engine.Surface, reg *mapfile.IDRegistry, out io.Writer) *replayStats {
	stats := &replayStats{}
	s.OnMatrixChange(func(_ engine.Matrix2D, st engine.State) {
		fmt.Fprintf(out, "  matrix scale=%.3f rotation=%.1f focus=(%.1f, %.1f)\n",
			st.Scale, st.Rotation, st.FocusX, st.FocusY)
	})
	s.OnTap(func(x, y float64) {
		stats.taps++
		fmt.Fprintf(out, "  tap (%.1f, %.1f)\n", x, y)
	})
	s.OnRegionHit(func(r area.Region) {
		stats.hits++
		var symbol string
		if reg != nil {
			symbol, _ = reg.Name(r.ID)
		}
		fmt.Fprintf(out, "  hit %s id=%d symbol=%s name=%q\n", r.Shape.Kind(), r.ID, symbol, r.Name)
	})
	return stats
}
