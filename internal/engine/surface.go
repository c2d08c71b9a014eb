package engine

import (
	"fmt"
	"math"

	"github.com/codepanda/gestureimage/internal/area"
)

// Surface binds pointer input to the gesture state, rebuilds the matrix after
// every sample and turns short taps into image-space clicks and region hits.
// A Surface is not safe for concurrent use; feed it from one goroutine.
type Surface struct {
	opts    Options
	acc     *Accumulator
	regions *area.Catalog

	// Geometry
	viewport   Viewport
	content    Content
	configured bool

	matrix Matrix2D

	// Recognizers
	scale  ScaleRecognizer
	rotate RotateRecognizer
	move   MoveRecognizer

	// Tap tracking for the current pointer sequence
	tracking bool
	startX   float64
	startY   float64
	currX    float64
	currY    float64

	// Listeners
	onMatrix func(Matrix2D, State)
	onTap    func(x, y float64)
	onHit    func(area.Region)
}

// NewSurface creates an unconfigured surface. Options must already be
// valid; see Options.Validate.
func NewSurface(opts Options) *Surface {
	return &Surface{
		opts:    opts,
		acc:     NewAccumulator(opts),
		regions: area.NewCatalog(),
		matrix:  Identity(),
	}
}

// --- Listeners ---

// OnMatrixChange registers the listener called after every recompose.
func (s *Surface) OnMatrixChange(fn func(Matrix2D, State)) {
	s.onMatrix = fn
}

// OnTap registers the listener called with image-space coordinates of a tap.
func (s *Surface) OnTap(fn func(x, y float64)) {
	s.onTap = fn
}

// OnRegionHit registers the listener called when a tap lands in a region.
func (s *Surface) OnRegionHit(fn func(area.Region)) {
	s.onHit = fn
}

// --- Commands ---

// Initialize fits the content into the viewport. It does nothing when the
// geometry is unchanged since the last fit, so layout passes cannot disturb
// a gesture in progress, and it leaves the surface unconfigured while either
// size is empty. It reports whether the state was reset.
func (s *Surface) Initialize(v Viewport, c Content) bool {
	if s.configured && v == s.viewport && c == s.content {
		return false
	}
	if !v.valid() || !c.valid() {
		return false
	}

	s.viewport = v
	s.content = c
	s.configured = true
	s.Reset()
	return true
}

// Reset refits the image to the current geometry.
func (s *Surface) Reset() {
	if !s.configured {
		return
	}
	s.acc.Reset(Fit(s.viewport, s.content, s.opts))
	s.recompose()
}

// LoadRegions replaces the clickable regions.
func (s *Surface) LoadRegions(descriptors []area.Descriptor) area.LoadReport {
	return s.regions.Load(descriptors)
}

// Handle processes one pointer sample. Samples with NaN or infinite
// coordinates are dropped, except that a cancel still ends the gesture.
func (s *Surface) Handle(sample Sample) {
	if !sample.finite() {
		if sample.Phase != PhaseCancel {
			return
		}
		sample = Sample{Phase: PhaseCancel, ID: sample.ID}
	}
	switch sample.Phase {
	case PhaseDown:
		s.tracking = true
		s.startX, s.startY = sample.X, sample.Y
		s.currX, s.currY = sample.X, sample.Y
		s.recognize(sample)

	case PhaseMove, PhasePointerDown, PhasePointerUp:
		if s.tracking && sample.Phase == PhaseMove {
			s.currX, s.currY = sample.X, sample.Y
		}
		s.recognize(sample)
		s.recompose()

	case PhaseUp:
		s.currX, s.currY = sample.X, sample.Y
		s.recognize(sample)
		s.recompose()
		if s.tracking && s.isClick() {
			s.tap(sample.X, sample.Y)
		}
		s.tracking = false

	case PhaseCancel:
		s.recognize(sample)
		s.tracking = false
	}
}

// recognize runs the three recognizers against the same sample.
func (s *Surface) recognize(sample Sample) {
	if factor, ok := s.scale.Update(sample); ok {
		s.acc.ApplyScaleDelta(factor)
	}
	if delta, ok := s.rotate.Update(sample); ok {
		s.acc.ApplyRotationDelta(delta)
	}
	if dx, dy, ok := s.move.Update(sample); ok {
		s.acc.ApplyPanDelta(dx, dy)
	}
}

// recompose rebuilds the matrix from scratch and notifies the listener.
func (s *Surface) recompose() {
	if !s.configured {
		return
	}
	state := s.acc.State()
	s.matrix = Compose(state, s.content)
	if s.onMatrix != nil {
		s.onMatrix(s.matrix, state)
	}
}

// isClick reports whether the pointer stayed within the click threshold.
// Displacements are truncated to whole pixels before comparing.
func (s *Surface) isClick() bool {
	dx := int(math.Abs(s.currX - s.startX))
	dy := int(math.Abs(s.currY - s.startY))
	return dx < s.opts.ClickThreshold && dy < s.opts.ClickThreshold
}

func (s *Surface) tap(screenX, screenY float64) {
	if !s.configured {
		return
	}
	x, y := s.ScreenToImage(screenX, screenY)

	if s.onTap != nil {
		s.onTap(x, y)
	}
	if r, ok := s.regions.RegionAt(x, y); ok && s.onHit != nil {
		s.onHit(r)
	}
}

// --- Queries ---

// Configured reports whether the surface has valid geometry.
func (s *Surface) Configured() bool {
	return s.configured
}

// State returns the current transform state.
func (s *Surface) State() State {
	return s.acc.State()
}

// Matrix returns the most recently composed matrix.
func (s *Surface) Matrix() Matrix2D {
	return s.matrix
}

// Viewport returns the current viewport.
func (s *Surface) Viewport() Viewport {
	return s.viewport
}

// Content returns the current content size.
func (s *Surface) Content() Content {
	return s.content
}

// Regions returns the region catalog.
func (s *Surface) Regions() *area.Catalog {
	return s.regions
}

// ScreenToImage maps a display point into image space.
//
// The scale clamp keeps the determinant at least MinScale², so the matrix
// is always invertible; failure here means that invariant was broken.
func (s *Surface) ScreenToImage(x, y float64) (float64, float64) {
	inv, err := s.matrix.Invert()
	if err != nil {
		panic(fmt.Sprintf("engine: transform %v: %v", s.matrix, err))
	}
	return inv.TransformPoint(x, y)
}

// ImageToScreen maps an image point onto the display.
func (s *Surface) ImageToScreen(x, y float64) (float64, float64) {
	return s.matrix.TransformPoint(x, y)
}
