package engine

import (
	"math/rand"
	"testing"
)

func TestComposeAnchorsCenterAtFocus(t *testing.T) {
	c := Content{Width: 100, Height: 60}
	states := []State{
		{Scale: 1, Rotation: 0, FocusX: 50, FocusY: 30},
		{Scale: 2.5, Rotation: 45, FocusX: 10, FocusY: -20},
		{Scale: 0.8, Rotation: -270, FocusX: 400, FocusY: 300},
	}
	for _, s := range states {
		x, y := Compose(s, c).TransformPoint(c.Width/2, c.Height/2)
		if !near(x, s.FocusX) || !near(y, s.FocusY) {
			t.Errorf("state %+v: image center maps to (%v, %v), want focus (%v, %v)", s, x, y, s.FocusX, s.FocusY)
		}
	}
}

func TestComposeRotatesAboutScaledCenter(t *testing.T) {
	c := Content{Width: 100, Height: 100}
	s := State{Scale: 2, Rotation: 90, FocusX: 100, FocusY: 100}

	// The right-middle edge point ends up directly below the focus.
	x, y := Compose(s, c).TransformPoint(100, 50)
	if !near(x, 100) || !near(y, 200) {
		t.Errorf("TransformPoint(100, 50) = (%v, %v), want (100, 200)", x, y)
	}
}

func TestComposeIsPure(t *testing.T) {
	c := Content{Width: 640, Height: 480}
	s := State{Scale: 1.7, Rotation: 12.5, FocusX: 300, FocusY: 200}
	first := Compose(s, c)
	for i := 0; i < 10; i++ {
		if got := Compose(s, c); got != first {
			t.Fatalf("Compose call %d = %v, want %v", i, got, first)
		}
	}
}

func TestComposeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := Content{Width: 320, Height: 240}
	for i := 0; i < 200; i++ {
		s := State{
			Scale:    DefaultMinScale + rng.Float64()*(DefaultMaxScale-DefaultMinScale),
			Rotation: rng.Float64()*720 - 360,
			FocusX:   rng.Float64()*2000 - 1000,
			FocusY:   rng.Float64()*2000 - 1000,
		}
		m := Compose(s, c)
		inv, err := m.Invert()
		if err != nil {
			t.Fatalf("state %+v: Invert() error = %v", s, err)
		}
		px, py := rng.Float64()*c.Width, rng.Float64()*c.Height
		sx, sy := m.TransformPoint(px, py)
		bx, by := inv.TransformPoint(sx, sy)
		if abs(bx-px) > 1e-6 || abs(by-py) > 1e-6 {
			t.Errorf("state %+v: (%v, %v) round-tripped to (%v, %v)", s, px, py, bx, by)
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestFit(t *testing.T) {
	tests := []struct {
		name string
		v    Viewport
		c    Content
		want State
	}{
		{"upscale square", Viewport{200, 200}, Content{100, 100}, State{Scale: 2, FocusX: 100, FocusY: 100}},
		{"letterbox wide content", Viewport{400, 400}, Content{200, 100}, State{Scale: 2, FocusX: 200, FocusY: 200}},
		{"pillarbox tall viewport", Viewport{100, 300}, Content{100, 100}, State{Scale: 1, FocusX: 50, FocusY: 150}},
		{"clamped to max", Viewport{1000, 1000}, Content{10, 10}, State{Scale: 4, FocusX: 500, FocusY: 500}},
		{"clamped to min", Viewport{100, 100}, Content{1000, 1000}, State{Scale: 0.8, FocusX: 50, FocusY: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(tt.v, tt.c, DefaultOptions())
			if !near(got.Scale, tt.want.Scale) || got.Rotation != 0 ||
				!near(got.FocusX, tt.want.FocusX) || !near(got.FocusY, tt.want.FocusY) {
				t.Errorf("Fit() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		o       Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"equal limits", Options{ClickThreshold: 0, MinScale: 1, MaxScale: 1}, false},
		{"negative threshold", Options{ClickThreshold: -1, MinScale: 1, MaxScale: 2}, true},
		{"zero min", Options{ClickThreshold: 3, MinScale: 0, MaxScale: 2}, true},
		{"inverted limits", Options{ClickThreshold: 3, MinScale: 2, MaxScale: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.o.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
