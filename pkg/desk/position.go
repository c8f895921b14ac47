package desk

import (
	"math"

	"github.com/golang/glog"
)

// DefaultTolerance is the distance in inches to the target considered reached.
const DefaultTolerance = 0.25

// PositionController drives the desk toward a target height, one step
// per tick, re-measuring between steps.
type PositionController struct {
	Tolerance float64
	Encoder   *CommandEncoder
}

// GoToHeight starts seeking target. A previous target is discarded.
func (p *PositionController) GoToHeight(st *State, target float64) error {
	current, ok := st.Height()
	if !ok {
		glog.Warning("current height unknown, cannot go to height")
		return ErrHeightUnknown
	}
	if err := p.Encoder.SendEmpty(); err != nil {
		return err
	}
	glog.Infof("starting move from %.1f in to %.1f in", current, target)
	st.target, st.control = target, StateSeeking
	return nil
}

// GoUp moves up by distance inches from the current height.
func (p *PositionController) GoUp(st *State, distance float64) error {
	current, ok := st.Height()
	if !ok {
		glog.Warning("current height unknown, cannot go up")
		return ErrHeightUnknown
	}
	glog.Infof("go up by %.2f in (%.2f -> %.2f)", distance, current, current+distance)
	return p.GoToHeight(st, current+distance)
}

// GoDown moves down by distance inches from the current height.
func (p *PositionController) GoDown(st *State, distance float64) error {
	current, ok := st.Height()
	if !ok {
		glog.Warning("current height unknown, cannot go down")
		return ErrHeightUnknown
	}
	glog.Infof("go down by %.2f in (%.2f -> %.2f)", distance, current, current-distance)
	return p.GoToHeight(st, current-distance)
}

// Stop abandons the target and releases the buttons.
func (p *PositionController) Stop(st *State) error {
	if st.control == StateIdle {
		return nil
	}
	st.control = StateIdle
	glog.Info("move stopped")
	return p.Encoder.SendEmpty()
}

// Evaluate is called once per tick. While seeking, it either resolves to
// Idle when within tolerance, or sends exactly one Up or Down command.
func (p *PositionController) Evaluate(st *State) error {
	if st.control != StateSeeking {
		return nil
	}
	if math.Abs(st.height-st.target) <= p.tolerance() {
		glog.Infof("reached target height %.1f in", st.height)
		st.control = StateIdle
		return nil
	}
	if st.height < st.target {
		return p.Encoder.Send(ButtonUp)
	}
	return p.Encoder.Send(ButtonDown)
}

func (p *PositionController) tolerance() float64 {
	if p.Tolerance <= 0 {
		return DefaultTolerance
	}
	return p.Tolerance
}
