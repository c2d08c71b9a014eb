package engine

import (
	"math"
	"testing"

	"github.com/codepanda/gestureimage/internal/area"
)

type recorder struct {
	matrices int
	last     State
	taps     [][2]float64
	hits     []int
}

func newTestSurface(t *testing.T) (*Surface, *recorder) {
	t.Helper()
	s := NewSurface(DefaultOptions())
	rec := &recorder{}
	s.OnMatrixChange(func(_ Matrix2D, st State) {
		rec.matrices++
		rec.last = st
	})
	s.OnTap(func(x, y float64) {
		rec.taps = append(rec.taps, [2]float64{x, y})
	})
	s.OnRegionHit(func(r area.Region) {
		rec.hits = append(rec.hits, r.ID)
	})
	if !s.Initialize(Viewport{200, 200}, Content{100, 100}) {
		t.Fatal("Initialize() = false, want true")
	}
	return s, rec
}

func TestInitializeFitsAndCenters(t *testing.T) {
	s, rec := newTestSurface(t)

	st := s.State()
	if !near(st.Scale, 2) || !near(st.FocusX, 100) || !near(st.FocusY, 100) || st.Rotation != 0 {
		t.Errorf("State() = %+v, want scale 2 focus (100, 100)", st)
	}
	if rec.matrices != 1 {
		t.Errorf("matrix notifications = %d, want 1", rec.matrices)
	}
	x, y := s.ScreenToImage(100, 100)
	if !near(x, 50) || !near(y, 50) {
		t.Errorf("ScreenToImage(100, 100) = (%v, %v), want (50, 50)", x, y)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	s, _ := newTestSurface(t)

	s.Handle(Sample{Phase: PhaseDown, X: 10, Y: 10})
	s.Handle(Sample{Phase: PhaseMove, X: 40, Y: 10})
	panned := s.State()

	if s.Initialize(Viewport{200, 200}, Content{100, 100}) {
		t.Error("Initialize() with unchanged geometry reported a reset")
	}
	if s.State() != panned {
		t.Errorf("State() = %+v after repeated Initialize, want %+v", s.State(), panned)
	}

	if !s.Initialize(Viewport{400, 200}, Content{100, 100}) {
		t.Fatal("Initialize() with a new viewport did not reset")
	}
	if st := s.State(); !near(st.FocusX, 200) || !near(st.FocusY, 100) {
		t.Errorf("State() = %+v after resize", st)
	}
}

func TestInitializeIgnoresEmptyGeometry(t *testing.T) {
	s := NewSurface(DefaultOptions())
	calls := 0
	s.OnMatrixChange(func(Matrix2D, State) { calls++ })

	if s.Initialize(Viewport{0, 100}, Content{100, 100}) {
		t.Error("Initialize() accepted an empty viewport")
	}
	if s.Initialize(Viewport{100, 100}, Content{100, -1}) {
		t.Error("Initialize() accepted negative content")
	}
	s.Handle(Sample{Phase: PhaseDown, X: 1, Y: 1})
	s.Handle(Sample{Phase: PhaseUp, X: 1, Y: 1})

	if s.Configured() || calls != 0 {
		t.Errorf("Configured() = %v, notifications = %d", s.Configured(), calls)
	}
}

func TestTapThreshold(t *testing.T) {
	tests := []struct {
		name   string
		upX    float64
		upY    float64
		wantOK bool
	}{
		{"still", 100, 100, true},
		{"small drift", 102, 101, true},
		{"truncated drift", 102.9, 100, true},
		{"at threshold", 103, 100, false},
		{"drag", 105, 100, false},
		{"vertical drag", 100, 96, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newTestSurface(t)
			s.Handle(Sample{Phase: PhaseDown, X: 100, Y: 100})
			s.Handle(Sample{Phase: PhaseUp, X: tt.upX, Y: tt.upY})

			if got := len(rec.taps) == 1; got != tt.wantOK {
				t.Fatalf("taps = %v, want tap %v", rec.taps, tt.wantOK)
			}
			if tt.wantOK {
				wx, wy := (tt.upX)/2, (tt.upY)/2
				if !near(rec.taps[0][0], wx) || !near(rec.taps[0][1], wy) {
					t.Errorf("tap at %v, want (%v, %v)", rec.taps[0], wx, wy)
				}
			}
		})
	}
}

func TestTapUsesLastMovePosition(t *testing.T) {
	s, rec := newTestSurface(t)
	s.Handle(Sample{Phase: PhaseDown, X: 100, Y: 100})
	s.Handle(Sample{Phase: PhaseMove, X: 150, Y: 100})
	s.Handle(Sample{Phase: PhaseMove, X: 100, Y: 100})
	s.Handle(Sample{Phase: PhaseUp, X: 100, Y: 100})

	if len(rec.taps) != 1 {
		t.Errorf("taps = %v, want one tap after returning to start", rec.taps)
	}
}

func TestCancelSuppressesTap(t *testing.T) {
	s, rec := newTestSurface(t)
	s.Handle(Sample{Phase: PhaseDown, X: 100, Y: 100})
	s.Handle(Sample{Phase: PhaseCancel, X: 100, Y: 100})
	s.Handle(Sample{Phase: PhaseUp, X: 100, Y: 100})

	if len(rec.taps) != 0 {
		t.Errorf("taps = %v after cancel, want none", rec.taps)
	}
}

func TestTapHitsRegion(t *testing.T) {
	s, rec := newTestSurface(t)
	report := s.LoadRegions([]area.Descriptor{
		{Shape: "rect", ID: 5, Name: "door", Coords: []float64{40, 40, 60, 60}},
		{Shape: "circle", ID: 6, Coords: []float64{10, 10, 5}},
	})
	if report.Loaded != 2 {
		t.Fatalf("Loaded = %d, want 2", report.Loaded)
	}

	tap := func(x, y float64) {
		s.Handle(Sample{Phase: PhaseDown, X: x, Y: y})
		s.Handle(Sample{Phase: PhaseUp, X: x, Y: y})
	}
	tap(100, 100) // image (50, 50)
	tap(20, 20)   // image (10, 10)
	tap(180, 20)  // image (90, 10), nothing there

	if len(rec.taps) != 3 {
		t.Errorf("taps = %d, want 3", len(rec.taps))
	}
	want := []int{5, 6}
	if len(rec.hits) != len(want) || rec.hits[0] != want[0] || rec.hits[1] != want[1] {
		t.Errorf("hits = %v, want %v", rec.hits, want)
	}
}

func TestTapAfterRotation(t *testing.T) {
	s, rec := newTestSurface(t)
	s.LoadRegions([]area.Descriptor{
		{Shape: "rect", ID: 1, Coords: []float64{90, 40, 100, 60}},
	})

	// Rotate a quarter turn clockwise.
	s.Handle(Sample{Phase: PhaseDown, ID: 0, X: 0, Y: 0})
	s.Handle(twoFingers(PhasePointerDown, 1, 0, 0, 100, 0))
	s.Handle(twoFingers(PhaseMove, 0, 0, 0, 0, 100))
	s.Handle(Sample{Phase: PhasePointerUp, ID: 1, Pointers: []Pointer{{ID: 0}, {ID: 1, X: 0, Y: 100}}})
	s.Handle(Sample{Phase: PhaseUp, ID: 0})

	if r := s.State().Rotation; !near(r, 90) {
		t.Fatalf("Rotation = %v, want 90", r)
	}

	// The image's right edge now sits below the focus point.
	st := s.State()
	sx, sy := s.ImageToScreen(95, 50)
	if !near(sx, st.FocusX) || !(sy > st.FocusY) {
		t.Fatalf("ImageToScreen(95, 50) = (%v, %v), focus (%v, %v)", sx, sy, st.FocusX, st.FocusY)
	}

	rec.hits = nil
	s.Handle(Sample{Phase: PhaseDown, X: sx, Y: sy})
	s.Handle(Sample{Phase: PhaseUp, X: sx, Y: sy})
	if len(rec.hits) != 1 || rec.hits[0] != 1 {
		t.Errorf("hits = %v, want [1]", rec.hits)
	}
}

func TestPinchNotifiesAndClamps(t *testing.T) {
	s, rec := newTestSurface(t)
	before := rec.matrices

	s.Handle(Sample{Phase: PhaseDown, ID: 0, X: 0, Y: 0})
	if rec.matrices != before {
		t.Errorf("down produced %d notifications", rec.matrices-before)
	}
	s.Handle(twoFingers(PhasePointerDown, 1, 0, 0, 10, 0))
	s.Handle(twoFingers(PhaseMove, 0, 0, 0, 1000, 0))

	if st := s.State(); st.Scale != DefaultMaxScale {
		t.Errorf("Scale = %v, want %v", st.Scale, DefaultMaxScale)
	}
	if rec.last != s.State() {
		t.Errorf("listener saw %+v, want %+v", rec.last, s.State())
	}
	if got := rec.matrices - before; got != 2 {
		t.Errorf("notifications = %d, want 2", got)
	}

	s.Handle(twoFingers(PhaseMove, 0, 0, 0, 1, 0))
	if st := s.State(); st.Scale != DefaultMinScale {
		t.Errorf("Scale = %v, want %v", st.Scale, DefaultMinScale)
	}
}

func TestNonFiniteSamplesIgnored(t *testing.T) {
	s, rec := newTestSurface(t)
	fitted := s.State()
	nan, inf := math.NaN(), math.Inf(1)

	s.Handle(Sample{Phase: PhaseDown, ID: 0, X: 0, Y: 0})
	s.Handle(twoFingers(PhasePointerDown, 1, 0, 0, nan, 0))
	s.Handle(twoFingers(PhaseMove, 0, 0, 0, inf, 50))
	s.Handle(Sample{Phase: PhaseMove, X: nan, Y: 10})
	s.Handle(Sample{Phase: PhaseUp, X: 0, Y: inf})

	if st := s.State(); st != fitted {
		t.Fatalf("State() = %+v, want %+v", st, fitted)
	}

	s.Handle(Sample{Phase: PhaseDown, X: 100, Y: 100})
	s.Handle(Sample{Phase: PhaseUp, X: 100, Y: 100})
	if len(rec.taps) != 1 || !near(rec.taps[0][0], 50) || !near(rec.taps[0][1], 50) {
		t.Errorf("taps = %v, want [(50, 50)]", rec.taps)
	}

	// A cancel still ends the gesture when its coordinates are bad.
	s.Handle(Sample{Phase: PhaseDown, X: 20, Y: 20})
	s.Handle(Sample{Phase: PhaseCancel, X: nan, Y: nan})
	s.Handle(Sample{Phase: PhaseUp, X: 20, Y: 20})
	if len(rec.taps) != 1 {
		t.Errorf("taps = %v after cancel, want one", rec.taps)
	}
}

func TestResetRestoresFit(t *testing.T) {
	s, _ := newTestSurface(t)
	fitted := s.State()

	s.Handle(Sample{Phase: PhaseDown, X: 0, Y: 0})
	s.Handle(Sample{Phase: PhaseMove, X: 30, Y: 30})
	if s.State() == fitted {
		t.Fatal("drag did not pan")
	}

	s.Reset()
	if s.State() != fitted {
		t.Errorf("State() = %+v after Reset, want %+v", s.State(), fitted)
	}
	if !s.Matrix().Multiply(mustInvert(t, Compose(fitted, s.Content()))).IsIdentity() {
		t.Error("Matrix() does not match the fitted state")
	}
}

func mustInvert(t *testing.T, m Matrix2D) Matrix2D {
	t.Helper()
	inv, err := m.Invert()
	if err != nil {
		t.Fatalf("Invert(%v): %v", m, err)
	}
	return inv
}
