// Package deskctl exposes a desk Bridge as an L1 controller.
package deskctl

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/deskbridge/pkg/desk"
	"github.com/robotalks/deskbridge/pkg/deskctl/msgs"
	fx "github.com/robotalks/deskbridge/pkg/framework"
	"github.com/robotalks/deskbridge/pkg/l1"
	env "github.com/robotalks/deskbridge/pkg/l1/env/controller"
	l1msgs "github.com/robotalks/deskbridge/pkg/l1/msgs"
	"github.com/robotalks/deskbridge/pkg/serial"
)

// StateHeight is the name of the plain text height state.
const StateHeight = "height"

// Controller runs a desk Bridge in the loop. Commands are applied before
// the bridge ticks, and the status is reported after everything else ran.
type Controller struct {
	Env    *env.Env
	Bridge *desk.Bridge
	// Lines are the serial lines read in background.
	Lines []*serial.Line

	lastControl   desk.ControlState
	statusChanged bool
	heightChanged bool
}

// NewController creates a Controller bridging deskLink and remoteLink.
func NewController(e *env.Env, deskLink, remoteLink desk.Link) *Controller {
	c := &Controller{Env: e, statusChanged: true}
	c.Bridge = desk.NewBridge(deskLink, remoteLink, c)
	return c
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	for _, line := range c.Lines {
		loop.AddRunnable(line)
	}
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.notifyStatusChange))
}

// PublishHeight implements desk.HeightSink.
func (c *Controller) PublishHeight(float64) {
	c.heightChanged = true
	c.statusChanged = true
}

// Status returns the current status.
func (c *Controller) Status() *msgs.DeskStatus {
	st := c.Bridge.State()
	status := &msgs.DeskStatus{Seeking: st.Control() == desk.StateSeeking}
	status.Height, status.HeightKnown = st.Height()
	if target, ok := st.Target(); ok {
		status.Target = target
	}
	status.Suppressed = uint64(c.Bridge.Suppressed())
	for _, line := range c.Lines {
		status.Overflow += uint64(line.Overflow())
	}
	return status
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		reply, handled := c.handleCommand(cmdMsg.Command.Msg())
		if !handled {
			return
		}
		mctx.MessageTaken()
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Errorf("reply command error: %v", err)
		}
	}))
	// iterations triggered by commands only relay, so the desk moves at
	// most one step per interval.
	var err error
	if cc.Triggered() {
		err = c.Bridge.Relay()
	} else {
		err = c.Bridge.Tick()
	}
	if control := c.Bridge.State().Control(); control != c.lastControl {
		glog.V(2).Infof("control state %s -> %s", c.lastControl, control)
		c.lastControl = control
		c.statusChanged = true
	}
	return err
}

func (c *Controller) handleCommand(msg fx.Message) (fx.Message, bool) {
	var err error
	switch m := msg.(type) {
	case *msgs.DeskStatusQuery:
		return &msgs.DeskStatusReply{Status: c.Status()}, true
	case *msgs.DeskGoToHeight:
		err = c.Bridge.GoToHeight(m.Height)
	case *msgs.DeskGoUp:
		err = c.Bridge.GoUp(m.Distance)
	case *msgs.DeskGoDown:
		err = c.Bridge.GoDown(m.Distance)
	case *msgs.DeskStop:
		err = c.Bridge.Stop()
	case *msgs.DeskPressButton:
		if m.Button > 0xff {
			err = fmt.Errorf("invalid button mask 0x%x", m.Button)
			break
		}
		err = c.Bridge.PressButton(desk.Button(m.Button), time.Duration(m.DurationMs)*time.Millisecond)
	default:
		return nil, false
	}
	if err != nil {
		return l1msgs.NewCommandErr(err), true
	}
	if _, press := msg.(*msgs.DeskPressButton); !press {
		// a move may start and finish within one tick.
		c.statusChanged = true
	}
	return l1msgs.NewCommandOK(), true
}

func (c *Controller) notifyStatusChange(cc fx.ControlContext) error {
	if !c.statusChanged {
		return nil
	}
	c.statusChanged = false
	status := c.Status()
	var errs fx.AggregatedError
	errs.Add(c.Env.Registrar.SendEvent(cc.Context(), status))
	if c.heightChanged && status.HeightKnown {
		c.heightChanged = false
		errs.Add(c.Env.Registrar.PublishState(cc.Context(), StateHeight,
			strconv.FormatFloat(status.Height, 'f', 1, 64)))
	}
	return errs.Aggregate()
}
