package area

import "math"

// Kind identifies the shape of a region.
type Kind string

const (
	KindRect    Kind = "rect"
	KindCircle  Kind = "circle"
	KindPolygon Kind = "poly"
)

// Shape is the geometry of a region. The set of shapes is closed: only Rect,
// Circle and *Polygon implement it.
type Shape interface {
	Kind() Kind
	// Contains reports whether the point lies strictly inside the shape.
	Contains(x, y float64) bool
	Bounds() Bounds
	Area() float64
	// Origin is the representative point used for labels.
	Origin() (float64, float64)

	isShape()
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Center returns the center point of the box.
func (b Bounds) Center() (float64, float64) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

// Rect is an axis-aligned rectangle. Points on its edges are outside.
type Rect struct {
	Left, Top, Right, Bottom float64
}

func (Rect) Kind() Kind { return KindRect }
func (Rect) isShape()   {}

func (r Rect) Contains(x, y float64) bool {
	return x > r.Left && x < r.Right && y > r.Top && y < r.Bottom
}

func (r Rect) Bounds() Bounds {
	return Bounds{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}

func (r Rect) Origin() (float64, float64) { return r.Left, r.Top }

func (r Rect) Area() float64 {
	return math.Abs(r.Right-r.Left) * math.Abs(r.Bottom-r.Top)
}

// Circle is a disc. Points on its circumference are outside.
type Circle struct {
	X, Y, Radius float64
}

func (Circle) Kind() Kind { return KindCircle }
func (Circle) isShape()   {}

func (c Circle) Contains(x, y float64) bool {
	return math.Hypot(c.X-x, c.Y-y) < c.Radius
}

func (c Circle) Bounds() Bounds {
	return Bounds{Left: c.X - c.Radius, Top: c.Y - c.Radius, Right: c.X + c.Radius, Bottom: c.Y + c.Radius}
}

func (c Circle) Origin() (float64, float64) { return c.X, c.Y }

func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

// Point is a polygon vertex.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is a closed polygon with its derived metadata computed once.
type Polygon struct {
	points   []Point
	bounds   Bounds
	area     float64
	centroid Point
}

// NewPolygon builds a polygon from at least three vertices. The loop is
// closed implicitly.
func NewPolygon(points []Point) (*Polygon, error) {
	if len(points) < 3 {
		return nil, ErrCoordCount
	}

	p := &Polygon{points: append([]Point(nil), points...)}
	p.bounds = Bounds{Left: points[0].X, Top: points[0].Y, Right: points[0].X, Bottom: points[0].Y}
	for _, pt := range points[1:] {
		p.bounds.Left = min(p.bounds.Left, pt.X)
		p.bounds.Top = min(p.bounds.Top, pt.Y)
		p.bounds.Right = max(p.bounds.Right, pt.X)
		p.bounds.Bottom = max(p.bounds.Bottom, pt.Y)
	}

	signed := p.signedArea()
	p.area = math.Abs(signed)
	p.centroid = p.computeCentroid(signed)
	return p, nil
}

func (*Polygon) Kind() Kind { return KindPolygon }
func (*Polygon) isShape()   {}

// Points returns a copy of the vertices.
func (p *Polygon) Points() []Point {
	return append([]Point(nil), p.points...)
}

// Area returns the absolute area.
func (p *Polygon) Area() float64 { return p.area }

// Centroid returns the center of mass.
func (p *Polygon) Centroid() (float64, float64) { return p.centroid.X, p.centroid.Y }

func (p *Polygon) Bounds() Bounds { return p.bounds }

func (p *Polygon) Origin() (float64, float64) { return p.Centroid() }

// signedArea is the shoelace sum over the closed loop.
func (p *Polygon) signedArea() float64 {
	var sum float64
	n := len(p.points)
	for i := 0; i < n; i++ {
		a, b := p.points[i], p.points[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

func (p *Polygon) computeCentroid(signed float64) Point {
	if signed == 0 {
		x, y := p.bounds.Center()
		return Point{X: x, Y: y}
	}

	var cx, cy float64
	n := len(p.points)
	for i := 0; i < n; i++ {
		a, b := p.points[i], p.points[(i+1)%n]
		cross := a.X*b.Y - b.X*a.Y
		cx += (a.X + b.X) * cross
		cy += (a.Y + b.Y) * cross
	}
	return Point{X: cx / (6 * signed), Y: cy / (6 * signed)}
}

// Contains applies the even-odd rule with a horizontal ray cast to the
// right of the point.
func (p *Polygon) Contains(x, y float64) bool {
	inside := false
	n := len(p.points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := p.points[i], p.points[j]
		if (pi.Y > y) != (pj.Y > y) &&
			x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

var (
	_ Shape = Rect{}
	_ Shape = Circle{}
	_ Shape = (*Polygon)(nil)
)
