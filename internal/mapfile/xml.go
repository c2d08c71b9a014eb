package mapfile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/codepanda/gestureimage/internal/area"
)

// decodeXML walks the token stream of an HTML-style image map file:
//
//	<maps>
//	  <map name="floor" width="400" height="300">
//	    <area shape="rect" coords="10,10,50,40" id="@+id/door" title="Door" />
//	  </map>
//	</maps>
//
// Every attribute of an area tag is kept on the descriptor.
func decodeXML(r io.Reader) ([]Map, error) {
	dec := xml.NewDecoder(r)
	var maps []Map
	cur := -1

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case strings.EqualFold(t.Name.Local, "map"):
				attrs := attrMap(t.Attr)
				maps = append(maps, Map{
					Name:   attrs["name"],
					Width:  parseSize(attrs["width"]),
					Height: parseSize(attrs["height"]),
				})
				cur = len(maps) - 1

			case strings.EqualFold(t.Name.Local, "area") && cur >= 0:
				attrs := attrMap(t.Attr)
				maps[cur].Areas = append(maps[cur].Areas, area.Descriptor{
					Shape:  attrs["shape"],
					Name:   displayName(attrs),
					Coords: parseCoords(attrs["coords"]),
					Attrs:  attrs,
				})
			}

		case xml.EndElement:
			if strings.EqualFold(t.Name.Local, "map") {
				cur = -1
			}
		}
	}
	return maps, nil
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

func parseSize(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return checkSize(v)
}

func encodeXML(w io.Writer, maps []Map, reg *IDRegistry) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: "maps"}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for _, m := range maps {
		start := xml.StartElement{
			Name: xml.Name{Local: "map"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: m.Name}},
		}
		if m.Width > 0 && m.Height > 0 {
			start.Attr = append(start.Attr,
				xml.Attr{Name: xml.Name{Local: "width"}, Value: strconv.FormatFloat(m.Width, 'f', -1, 64)},
				xml.Attr{Name: xml.Name{Local: "height"}, Value: strconv.FormatFloat(m.Height, 'f', -1, 64)},
			)
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, d := range m.Areas {
			el := xml.StartElement{Name: xml.Name{Local: "area"}, Attr: areaAttrs(d, reg)}
			if err := enc.EncodeToken(el); err != nil {
				return err
			}
			if err := enc.EncodeToken(el.End()); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(start.End()); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	return enc.Flush()
}

// areaAttrs lists the canonical attributes first and the rest sorted by key.
// Unparsable coordinates are written back as they were read.
func areaAttrs(d area.Descriptor, reg *IDRegistry) []xml.Attr {
	coords := formatCoords(d.Coords)
	if d.Coords == nil && d.Attrs["coords"] != "" {
		coords = d.Attrs["coords"]
	}
	canonical := []xml.Attr{
		{Name: xml.Name{Local: "shape"}, Value: d.Shape},
		{Name: xml.Name{Local: "coords"}, Value: coords},
		{Name: xml.Name{Local: "id"}, Value: symbolicID(d.ID, reg)},
	}
	if d.Name != "" && d.Attrs["title"] != d.Name && d.Attrs["alt"] != d.Name {
		canonical = append(canonical, xml.Attr{Name: xml.Name{Local: "name"}, Value: d.Name})
	}

	skip := map[string]bool{"shape": true, "coords": true, "id": true, "name": true}
	keys := make([]string, 0, len(d.Attrs))
	for k := range d.Attrs {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		canonical = append(canonical, xml.Attr{Name: xml.Name{Local: k}, Value: d.Attrs[k]})
	}
	return canonical
}
