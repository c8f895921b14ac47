package desk

import "fmt"

// ControlState is the state of the position controller.
type ControlState int

// Control states.
const (
	StateIdle ControlState = iota
	StateSeeking
)

// String implements fmt.Stringer.
func (s ControlState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeking:
		return "seeking"
	}
	return fmt.Sprintf("ControlState(%d)", int(s))
}

// State is shared by the components of a Bridge.
// height is written by FrameDecoder only, the rest by PositionController.
type State struct {
	height      float64
	heightKnown bool

	control ControlState
	target  float64
}

// Height returns the last decoded height, false if none is decoded yet.
func (s State) Height() (float64, bool) {
	return s.height, s.heightKnown
}

// Control returns the control state.
func (s State) Control() ControlState {
	return s.control
}

// Target returns the target height while seeking.
func (s State) Target() (float64, bool) {
	return s.target, s.control == StateSeeking
}

// HeightSink receives decoded heights.
type HeightSink interface {
	PublishHeight(float64)
}

// PublishHeightFunc is func form of HeightSink.
type PublishHeightFunc func(float64)

// PublishHeight implements HeightSink.
func (f PublishHeightFunc) PublishHeight(h float64) {
	f(h)
}
