package mapfile

import (
	"fmt"
	"io"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/codepanda/gestureimage/internal/area"
)

// TOML layout:
//
//	[[map]]
//	name = "floor"
//
//	[[map.area]]
//	shape = "rect"
//	id = "@+id/door"
//	title = "Door"
//	coords = [10.0, 10.0, 50.0, 40.0]
//
//	[map.area.attrs]
//	href = "/rooms/door"
type tomlFile struct {
	Maps []tomlMap `toml:"map"`
}

type tomlMap struct {
	Name   string     `toml:"name"`
	Width  float64    `toml:"width,omitzero"`
	Height float64    `toml:"height,omitzero"`
	Areas  []tomlArea `toml:"area"`
}

type tomlArea struct {
	Shape  string            `toml:"shape"`
	ID     any               `toml:"id"` // string or integer
	Name   string            `toml:"name,omitempty"`
	Title  string            `toml:"title,omitempty"`
	Alt    string            `toml:"alt,omitempty"`
	Coords []float64         `toml:"coords"`
	Attrs  map[string]string `toml:"attrs,omitempty"`
}

func decodeTOML(r io.Reader) ([]Map, error) {
	var file tomlFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}

	maps := make([]Map, 0, len(file.Maps))
	for _, tm := range file.Maps {
		m := Map{Name: tm.Name, Width: checkSize(tm.Width), Height: checkSize(tm.Height)}
		for _, ta := range tm.Areas {
			rawID := rawTOMLID(ta.ID)

			attrs := make(map[string]string, len(ta.Attrs)+6)
			for k, v := range ta.Attrs {
				attrs[k] = v
			}
			attrs["shape"] = ta.Shape
			attrs["id"] = rawID
			attrs["coords"] = formatCoords(ta.Coords)
			for k, v := range map[string]string{"name": ta.Name, "title": ta.Title, "alt": ta.Alt} {
				if v != "" {
					attrs[k] = v
				}
			}

			m.Areas = append(m.Areas, area.Descriptor{
				Shape:  ta.Shape,
				Name:   displayName(attrs),
				Coords: finiteCoords(ta.Coords),
				Attrs:  attrs,
			})
		}
		maps = append(maps, m)
	}
	return maps, nil
}

// checkSize drops sizes that are negative or not finite.
func checkSize(v float64) float64 {
	if v < 0 || !finite(v) {
		return 0
	}
	return v
}

func rawTOMLID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case int64:
		return strconv.FormatInt(id, 10)
	}
	return ""
}

func encodeTOML(w io.Writer, maps []Map, reg *IDRegistry) error {
	var file tomlFile
	for _, m := range maps {
		tm := tomlMap{Name: m.Name, Width: m.Width, Height: m.Height}
		for _, d := range m.Areas {
			ta := tomlArea{
				Shape:  d.Shape,
				ID:     symbolicID(d.ID, reg),
				Name:   d.Attrs["name"],
				Title:  d.Attrs["title"],
				Alt:    d.Attrs["alt"],
				Coords: d.Coords,
			}
			if ta.Name == "" && ta.Title == "" && ta.Alt == "" {
				ta.Name = d.Name
			}
			for k, v := range d.Attrs {
				switch k {
				case "shape", "id", "coords", "name", "title", "alt":
					continue
				}
				if ta.Attrs == nil {
					ta.Attrs = make(map[string]string)
				}
				ta.Attrs[k] = v
			}
			tm.Areas = append(tm.Areas, ta)
		}
		file.Maps = append(file.Maps, tm)
	}
	return toml.NewEncoder(w).Encode(file)
}
