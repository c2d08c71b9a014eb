package engine

import "math"

// Accumulator owns the transform state and is the only thing that mutates it.
// Scale, rotation and pan are independent axes, so the order in which the
// recognizers report their deltas within one sample does not matter.
type Accumulator struct {
	state State
	opts  Options
}

// NewAccumulator creates an accumulator at unit scale.
func NewAccumulator(opts Options) *Accumulator {
	return &Accumulator{
		state: State{Scale: opts.clamp(1)},
		opts:  opts,
	}
}

// State returns the current state.
func (a *Accumulator) State() State {
	return a.state
}

// Reset replaces the state, clamping its scale.
func (a *Accumulator) Reset(s State) {
	s.Scale = a.opts.clamp(s.Scale)
	a.state = s
}

// ApplyScaleDelta multiplies the scale by factor, the ratio relative to the
// previous recognized span.
func (a *Accumulator) ApplyScaleDelta(factor float64) {
	if math.IsNaN(factor) {
		return
	}
	a.state.Scale = a.opts.clamp(a.state.Scale * factor)
}

// ApplyRotationDelta subtracts a recognizer delta, which is reported as
// previous angle minus current angle.
func (a *Accumulator) ApplyRotationDelta(degreesDelta float64) {
	a.state.Rotation -= degreesDelta
}

// ApplyPanDelta moves the focus point. Panning is unbounded.
func (a *Accumulator) ApplyPanDelta(dx, dy float64) {
	a.state.FocusX += dx
	a.state.FocusY += dy
}
