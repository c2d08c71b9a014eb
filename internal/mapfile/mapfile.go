// Package mapfile reads and writes region maps: named lists of clickable
// areas laid over an image, stored as XML or TOML.
package mapfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/codepanda/gestureimage/internal/area"
)

var (
	ErrMapNotFound = errors.New("map not found")
	ErrFormat      = errors.New("unsupported map format")
)

// Format is a map file encoding.
type Format string

const (
	FormatXML  Format = "xml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Map is a named set of area descriptors. Width and Height optionally give
// the intrinsic size of the image the areas were drawn on.
type Map struct {
	Name   string            `json:"name"`
	Width  float64           `json:"width,omitempty"`
	Height float64           `json:"height,omitempty"`
	Areas  []area.Descriptor `json:"areas"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".toml", ".tml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
}

// FormatFromContentType picks the format from an HTTP content type.
func FormatFromContentType(contentType string) (Format, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case "application/xml", "text/xml":
		return FormatXML, nil
	case "application/toml", "text/toml", "application/x-toml":
		return FormatTOML, nil
	case "", "application/json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, contentType)
}

// DecodeAll reads every map in r. A nil registry gets a fresh one.
func DecodeAll(r io.Reader, format Format, reg *IDRegistry) ([]Map, error) {
	if reg == nil {
		reg = NewIDRegistry()
	}
	var (
		maps []Map
		err  error
	)
	switch format {
	case FormatXML:
		maps, err = decodeXML(r)
	case FormatTOML:
		maps, err = decodeTOML(r)
	case FormatJSON:
		return decodeJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	if err != nil {
		return nil, err
	}
	reg.resolveAreas(maps)
	return maps, nil
}

// Decode reads the map called name from r. Map names match
// case-insensitively.
func Decode(r io.Reader, format Format, name string, reg *IDRegistry) (*Map, error) {
	maps, err := DecodeAll(r, format, reg)
	if err != nil {
		return nil, err
	}
	return Find(maps, name)
}

// Find returns the map called name.
func Find(maps []Map, name string) (*Map, error) {
	for i := range maps {
		if strings.EqualFold(maps[i].Name, name) {
			return &maps[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMapNotFound, name)
}

// LoadAll reads every map in the file at path.
func LoadAll(path string, reg *IDRegistry) ([]Map, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map file: %w", err)
	}
	defer f.Close()

	maps, err := DecodeAll(f, format, reg)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return maps, nil
}

// Load reads the map called name from the file at path.
func Load(path, name string, reg *IDRegistry) (*Map, error) {
	maps, err := LoadAll(path, reg)
	if err != nil {
		return nil, err
	}
	return Find(maps, name)
}

// Encode writes maps to w. Symbolic ids known to reg are written back in
// their "@+id/" form; reg may be nil.
func Encode(w io.Writer, format Format, maps []Map, reg *IDRegistry) error {
	switch format {
	case FormatXML:
		return encodeXML(w, maps, reg)
	case FormatTOML:
		return encodeTOML(w, maps, reg)
	case FormatJSON:
		return encodeJSON(w, maps)
	}
	return fmt.Errorf("%w: %q", ErrFormat, format)
}

// parseCoords splits a comma separated coordinate list. A list with any
// entry that is not a number yields nil, so the catalog reports the area
// as malformed instead of the whole file failing. The raw text stays in
// the area's "coords" attribute.
func parseCoords(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	coords := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || !finite(v) {
			return nil
		}
		coords = append(coords, v)
	}
	return coords
}

// finiteCoords returns coords, or nil when any entry is NaN or infinite.
func finiteCoords(coords []float64) []float64 {
	for _, c := range coords {
		if !finite(c) {
			return nil
		}
	}
	return coords
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatCoords(coords []float64) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// displayName picks the first non-empty of name, title and alt.
func displayName(attrs map[string]string) string {
	for _, key := range []string{"name", "title", "alt"} {
		if v := attrs[key]; v != "" {
			return v
		}
	}
	return ""
}

// symbolicID renders id for writing, preferring a registered name.
func symbolicID(id int, reg *IDRegistry) string {
	if reg != nil {
		if name, ok := reg.Name(id); ok && name != strconv.Itoa(id) {
			return "@+id/" + name
		}
	}
	return strconv.Itoa(id)
}
