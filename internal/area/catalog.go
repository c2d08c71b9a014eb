package area

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
)

var (
	ErrUnknownShape = errors.New("unknown shape")
	ErrCoordCount   = errors.New("wrong number of coordinates for shape")
	ErrMissingID    = errors.New("region id is zero")
	ErrDuplicateID  = errors.New("duplicate region id")
	ErrBadCoord     = errors.New("coordinate is not a finite number")
)

// Descriptor is the raw description of one region as produced by a map
// loader. Coords holds [left, top, right, bottom] for rect, [x, y, radius]
// for circle and alternating x, y pairs for poly.
type Descriptor struct {
	Shape  string            `json:"shape"`
	ID     int               `json:"id"`
	Name   string            `json:"name,omitempty"`
	Coords []float64         `json:"coords"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// Region is an immutable clickable area.
type Region struct {
	ID    int
	Name  string
	Shape Shape
	attrs map[string]string
}

// Attr returns a single attribute value.
func (r Region) Attr(key string) (string, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// Attrs returns a copy of all attributes.
func (r Region) Attrs() map[string]string {
	out := make(map[string]string, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}
	return out
}

// Origin returns the representative point of the region.
func (r Region) Origin() (float64, float64) {
	return r.Shape.Origin()
}

// NewRegion validates a descriptor and builds the matching region.
func NewRegion(d Descriptor) (Region, error) {
	if d.ID == 0 {
		return Region{}, ErrMissingID
	}
	for _, c := range d.Coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Region{}, ErrBadCoord
		}
	}

	shape, err := newShape(d.Shape, d.Coords)
	if err != nil {
		return Region{}, err
	}

	var attrs map[string]string
	if len(d.Attrs) > 0 {
		attrs = make(map[string]string, len(d.Attrs))
		for k, v := range d.Attrs {
			attrs[k] = v
		}
	}

	return Region{ID: d.ID, Name: d.Name, Shape: shape, attrs: attrs}, nil
}

// newShape accepts the legacy HTML spellings rectangle, circ and polygon
// alongside rect, circle and poly.
func newShape(kind string, c []float64) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "rect", "rectangle":
		if len(c) != 4 {
			return nil, fmt.Errorf("%w: rect needs 4, got %d", ErrCoordCount, len(c))
		}
		return Rect{Left: c[0], Top: c[1], Right: c[2], Bottom: c[3]}, nil

	case "circle", "circ":
		if len(c) != 3 {
			return nil, fmt.Errorf("%w: circle needs 3, got %d", ErrCoordCount, len(c))
		}
		return Circle{X: c[0], Y: c[1], Radius: c[2]}, nil

	case "poly", "polygon":
		if len(c) < 6 || len(c)%2 != 0 {
			return nil, fmt.Errorf("%w: poly needs an even count of at least 6, got %d", ErrCoordCount, len(c))
		}
		points := make([]Point, 0, len(c)/2)
		for i := 0; i < len(c); i += 2 {
			points = append(points, Point{X: c[i], Y: c[i+1]})
		}
		return NewPolygon(points)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, kind)
	}
}

// Skip records a descriptor that was left out of a load.
type Skip struct {
	Index  int    `json:"index"`
	ID     int    `json:"id"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// LoadReport summarizes a Catalog.Load call.
type LoadReport struct {
	Loaded  int    `json:"loaded"`
	Skipped []Skip `json:"skipped,omitempty"`
}

type regionSet struct {
	list []Region
	byID map[int]int // id -> index in list
}

var emptySet = &regionSet{byID: map[int]int{}}

// Catalog holds the current set of regions. A load replaces the whole set;
// readers see either the old or the new set, never a mix. The zero value is
// an empty catalog.
type Catalog struct {
	set atomic.Pointer[regionSet]
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

func (c *Catalog) current() *regionSet {
	if set := c.set.Load(); set != nil {
		return set
	}
	return emptySet
}

// Load replaces the region set. Malformed descriptors are skipped and
// reported; they never abort the load.
func (c *Catalog) Load(descriptors []Descriptor) LoadReport {
	next := &regionSet{
		list: make([]Region, 0, len(descriptors)),
		byID: make(map[int]int, len(descriptors)),
	}

	var report LoadReport
	for i, d := range descriptors {
		r, err := NewRegion(d)
		if err == nil {
			if _, dup := next.byID[r.ID]; dup {
				err = ErrDuplicateID
			}
		}
		if err != nil {
			slog.Debug("skip region", "index", i, "id", d.ID, "shape", d.Shape, "error", err)
			report.Skipped = append(report.Skipped, Skip{Index: i, ID: d.ID, Reason: err.Error(), Err: err})
			continue
		}
		next.byID[r.ID] = len(next.list)
		next.list = append(next.list, r)
	}
	report.Loaded = len(next.list)

	c.set.Store(next)
	return report
}

// HitTest returns the id of the first region, in insertion order, that
// contains the point.
func (c *Catalog) HitTest(x, y float64) (int, bool) {
	r, ok := c.RegionAt(x, y)
	return r.ID, ok
}

// RegionAt is HitTest returning the whole region.
func (c *Catalog) RegionAt(x, y float64) (Region, bool) {
	for _, r := range c.current().list {
		if r.Shape.Contains(x, y) {
			return r, true
		}
	}
	return Region{}, false
}

// Region looks a region up by id.
func (c *Catalog) Region(id int) (Region, bool) {
	set := c.current()
	i, ok := set.byID[id]
	if !ok {
		return Region{}, false
	}
	return set.list[i], true
}

// Regions returns the regions in insertion order.
func (c *Catalog) Regions() []Region {
	return append([]Region(nil), c.current().list...)
}

// Len returns the number of loaded regions.
func (c *Catalog) Len() int {
	return len(c.current().list)
}
