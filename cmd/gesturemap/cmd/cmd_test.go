package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codepanda/gestureimage/internal/engine"
	"github.com/codepanda/gestureimage/internal/mapfile"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Reset flags to prevent accumulation between tests
	verbose = false
	mapName = mapfile.SampleName
	areasJSON = false
	hitFile = ""
	replayViewport, replayContent, replayImage = "", "", ""
	replayThreshold = engine.DefaultClickThreshold

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "areas of the sample",
			args:        []string{"areas"},
			wantContain: []string{"Map sample: 4 region(s), 0 skipped", "lamp", "circle", "Front door"},
		},
		{
			name:        "hit lamp",
			args:        []string{"hit", "200", "60"},
			wantContain: []string{"circle", "symbol=lamp", `name="Lamp"`},
		},
		{
			name:        "hit nothing",
			args:        []string{"hit", "5", "5"},
			wantContain: []string{"no region"},
		},
		{
			name:    "hit bad coordinate",
			args:    []string{"hit", "north", "5"},
			wantErr: true,
		},
		{
			name:    "areas of a missing file",
			args:    []string{"areas", filepath.Join(t.TempDir(), "nope.xml")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none\nOutput: %s", output)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestAreasJSON(t *testing.T) {
	output, err := run(t, "areas", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Name    string      `json:"name"`
		Regions []regionRow `json:"regions"`
	}
	if err := json.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if got.Name != "sample" || len(got.Regions) != 4 {
		t.Fatalf("got %+v", got)
	}
	if got.Regions[1].Symbol != "lamp" || got.Regions[1].Origin != [2]float64{200, 60} {
		t.Errorf("second region = %+v, want the lamp at (200, 60)", got.Regions[1])
	}
}

func TestConvert(t *testing.T) {
	var src bytes.Buffer
	maps, err := mapfile.SampleMaps(mapfile.NewIDRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if err := mapfile.Encode(&src, mapfile.FormatXML, maps, nil); err != nil {
		t.Fatal(err)
	}
	in := writeFile(t, "maps.xml", src.String())
	out := filepath.Join(t.TempDir(), "maps.toml")

	output, err := run(t, "convert", in, out)
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Wrote 2 map(s)") {
		t.Errorf("output = %q", output)
	}

	output, err = run(t, "areas", out)
	if err != nil {
		t.Fatalf("areas on converted file: %v", err)
	}
	if !strings.Contains(output, "4 region(s)") {
		t.Errorf("converted map lost regions:\n%s", output)
	}

	if _, err := run(t, "convert", in, filepath.Join(t.TempDir(), "maps.csv")); err == nil {
		t.Error("convert to .csv succeeded")
	}
}

func TestReplayTap(t *testing.T) {
	trace := writeFile(t, "tap.toml", `
map = "sample"

[viewport]
width = 400.0
height = 300.0

[[sample]]
phase = "down"
x = 200.0
y = 60.0

[[sample]]
phase = "up"
x = 201.0
y = 60.0
`)
	output, err := run(t, "replay", trace)
	if err != nil {
		t.Fatalf("replay: %v\n%s", err, output)
	}
	for _, want := range []string{
		"map sample: 4 region(s)",
		"#1 down (200, 60)",
		"tap (201.0, 60.0)",
		"symbol=lamp",
		"taps=1 hits=1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}
}

func TestReplayPinch(t *testing.T) {
	trace := writeFile(t, "pinch.toml", `
[[sample]]
phase = "down"
id = 0
x = 90.0
y = 100.0

[[sample]]
phase = "pointer_down"
id = 1
x = 110.0
y = 100.0
pointers = [{ id = 0, x = 90.0, y = 100.0 }, { id = 1, x = 110.0, y = 100.0 }]

[[sample]]
phase = "move"
id = 1
x = 120.0
y = 100.0
pointers = [{ id = 0, x = 80.0, y = 100.0 }, { id = 1, x = 120.0, y = 100.0 }]
`)
	output, err := run(t, "replay", trace, "--viewport", "200x200", "--content", "100x100")
	if err != nil {
		t.Fatalf("replay: %v\n%s", err, output)
	}
	if !strings.Contains(output, "final scale=4.000") {
		t.Errorf("pinch did not reach the max scale:\n%s", output)
	}
	if !strings.Contains(output, "taps=0") {
		t.Errorf("pinch produced a tap:\n%s", output)
	}
}

func TestReplayNeedsGeometry(t *testing.T) {
	trace := writeFile(t, "empty.toml", `
[[sample]]
phase = "down"
x = 1.0
y = 1.0
`)
	if _, err := run(t, "replay", trace); err == nil {
		t.Error("replay without viewport succeeded")
	}
	if _, err := run(t, "replay", trace, "--viewport", "wide"); err == nil {
		t.Error("replay with a malformed viewport succeeded")
	}
}
