package engine

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultClickThreshold = 3
	DefaultMinScale       = 0.8
	DefaultMaxScale       = 4.0
)

// Viewport is the size of the display surface in screen pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Content is the intrinsic size of the displayed image.
type Content struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (v Viewport) valid() bool { return v.Width > 0 && v.Height > 0 }
func (c Content) valid() bool  { return c.Width > 0 && c.Height > 0 }

// State is the whole mutable state of the engine. Everything else,
// including the matrix, is derived from it.
type State struct {
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"` // degrees
	FocusX   float64 `json:"focusX"`
	FocusY   float64 `json:"focusY"`
}

// Options configures the gesture limits and tap detection.
type Options struct {
	// ClickThreshold is the maximum per-axis displacement in pixels between
	// down and up for the sequence to count as a tap.
	ClickThreshold int
	MinScale       float64
	MaxScale       float64
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		ClickThreshold: DefaultClickThreshold,
		MinScale:       DefaultMinScale,
		MaxScale:       DefaultMaxScale,
	}
}

// Validate checks that the limits keep every composed matrix invertible.
func (o Options) Validate() error {
	if o.ClickThreshold < 0 {
		return fmt.Errorf("click threshold must not be negative, got %d", o.ClickThreshold)
	}
	if !(o.MinScale > 0) || math.IsInf(o.MinScale, 0) {
		return fmt.Errorf("min scale must be positive, got %v", o.MinScale)
	}
	if !(o.MaxScale >= o.MinScale) || math.IsInf(o.MaxScale, 0) {
		return errors.New("max scale must be finite and not below min scale")
	}
	return nil
}

func (o Options) clamp(scale float64) float64 {
	return math.Max(o.MinScale, math.Min(scale, o.MaxScale))
}

// Compose builds the affine matrix for state and content.
//
// The image is scaled about the origin, rotated about its scaled center,
// and finally translated so that the scaled center lands on the focus point.
func Compose(s State, c Content) Matrix2D {
	cx := c.Width * s.Scale / 2
	cy := c.Height * s.Scale / 2

	m := Scale(s.Scale)
	m = RotateAbout(s.Rotation, cx, cy).Multiply(m)
	return Translate(s.FocusX-cx, s.FocusY-cy).Multiply(m)
}

// Fit returns the state that fits content inside viewport and centers it.
// The fitted scale is clamped to the option limits.
func Fit(v Viewport, c Content, o Options) State {
	scale := o.clamp(math.Min(v.Width/c.Width, v.Height/c.Height))

	// Letterbox space left over on each side
	redundantX := (v.Width - scale*c.Width) / 2
	redundantY := (v.Height - scale*c.Height) / 2

	return State{
		Scale:    scale,
		Rotation: 0,
		FocusX:   redundantX + c.Width*scale/2,
		FocusY:   redundantY + c.Height*scale/2,
	}
}
