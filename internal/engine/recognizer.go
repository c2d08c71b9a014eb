package engine

import (
	"fmt"
	"math"
)

// Phase is the kind of a pointer sample.
type Phase int

const (
	PhaseDown        Phase = iota // first finger touched
	PhaseMove                     // one or more fingers moved
	PhaseUp                       // last finger lifted
	PhasePointerDown              // an additional finger touched
	PhasePointerUp                // a finger lifted while others remain
	PhaseCancel                   // the platform abandoned the sequence
)

var phaseNames = map[Phase]string{
	PhaseDown:        "down",
	PhaseMove:        "move",
	PhaseUp:          "up",
	PhasePointerDown: "pointer_down",
	PhasePointerUp:   "pointer_up",
	PhaseCancel:      "cancel",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, bool) {
	for p, name := range phaseNames {
		if name == s {
			return p, true
		}
	}
	return 0, false
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	name, ok := phaseNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, ok := ParsePhase(string(text))
	if !ok {
		return fmt.Errorf("unknown phase %q", text)
	}
	*p = parsed
	return nil
}

// Pointer is one finger in contact with the surface.
type Pointer struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Sample is one raw input event in display coordinates.
//
// X and Y locate the pointer the phase refers to (ID). Pointers lists every
// finger in contact during the sample; on Up and PointerUp it still
// contains the finger that is lifting. When Pointers is empty the sample is
// treated as a single pointer at (X, Y).
type Sample struct {
	Phase    Phase     `json:"phase"`
	ID       int       `json:"id"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Pointers []Pointer `json:"pointers,omitempty"`
}

// finite reports whether every coordinate in the sample is a real number.
func (s Sample) finite() bool {
	ok := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	if !ok(s.X) || !ok(s.Y) {
		return false
	}
	for _, p := range s.Pointers {
		if !ok(p.X) || !ok(p.Y) {
			return false
		}
	}
	return true
}

// active returns the pointers that remain in contact after the sample.
func (s Sample) active() []Pointer {
	pointers := s.Pointers
	if len(pointers) == 0 {
		pointers = []Pointer{{ID: s.ID, X: s.X, Y: s.Y}}
	}
	switch s.Phase {
	case PhaseUp, PhaseCancel:
		return nil
	case PhasePointerUp:
		out := make([]Pointer, 0, len(pointers))
		for _, p := range pointers {
			if p.ID != s.ID {
				out = append(out, p)
			}
		}
		return out
	}
	return pointers
}

func centroid(pointers []Pointer) (float64, float64) {
	var sx, sy float64
	for _, p := range pointers {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pointers))
	return sx / n, sy / n
}

// ScaleRecognizer reports pinch factors relative to the previous sample.
type ScaleRecognizer struct {
	prevSpan float64
	count    int
}

// span is twice the mean distance of the pointers from their centroid.
func span(pointers []Pointer) float64 {
	fx, fy := centroid(pointers)
	var sum float64
	for _, p := range pointers {
		sum += math.Hypot(p.X-fx, p.Y-fy)
	}
	return 2 * sum / float64(len(pointers))
}

// Update consumes a sample and returns the scale factor if a pinch step was
// recognized.
func (r *ScaleRecognizer) Update(s Sample) (float64, bool) {
	pointers := s.active()
	if len(pointers) < 2 {
		r.prevSpan, r.count = 0, len(pointers)
		return 0, false
	}

	cur := span(pointers)
	if s.Phase != PhaseMove || len(pointers) != r.count || r.prevSpan <= 0 {
		r.prevSpan, r.count = cur, len(pointers)
		return 0, false
	}

	factor := cur / r.prevSpan
	r.prevSpan = cur
	return factor, true
}

// RotateRecognizer reports the change in angle of the line through the first
// two pointers, as previous minus current, in degrees.
type RotateRecognizer struct {
	prevAngle float64
	tracking  bool
	first     int
	second    int
}

// Update consumes a sample and returns the rotation delta if one was
// recognized.
func (r *RotateRecognizer) Update(s Sample) (float64, bool) {
	pointers := s.active()
	if len(pointers) < 2 {
		r.tracking = false
		return 0, false
	}

	a, b := pointers[0], pointers[1]
	cur := math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
	if s.Phase != PhaseMove || !r.tracking || a.ID != r.first || b.ID != r.second {
		r.prevAngle, r.tracking = cur, true
		r.first, r.second = a.ID, b.ID
		return 0, false
	}

	delta := normalizeDegrees(r.prevAngle - cur)
	r.prevAngle = cur
	return delta, true
}

// normalizeDegrees maps an angle into (-180, 180].
func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// MoveRecognizer reports focus point movement. It works with any number of
// fingers, including one.
type MoveRecognizer struct {
	prevX, prevY float64
	count        int
}

// Update consumes a sample and returns the focus delta if one was recognized.
func (r *MoveRecognizer) Update(s Sample) (float64, float64, bool) {
	pointers := s.active()
	if len(pointers) == 0 {
		r.count = 0
		return 0, 0, false
	}

	fx, fy := centroid(pointers)
	if s.Phase != PhaseMove || len(pointers) != r.count {
		r.prevX, r.prevY, r.count = fx, fy, len(pointers)
		return 0, 0, false
	}

	dx, dy := fx-r.prevX, fy-r.prevY
	r.prevX, r.prevY = fx, fy
	return dx, dy, true
}
