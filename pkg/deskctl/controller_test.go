package deskctl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/deskbridge/pkg/desk"
	"github.com/robotalks/deskbridge/pkg/deskctl/msgs"
	fx "github.com/robotalks/deskbridge/pkg/framework"
	"github.com/robotalks/deskbridge/pkg/l1"
	"github.com/robotalks/deskbridge/pkg/l1/comm"
	env "github.com/robotalks/deskbridge/pkg/l1/env/controller"
	l1msgs "github.com/robotalks/deskbridge/pkg/l1/msgs"
	"github.com/robotalks/deskbridge/pkg/serial"
	simdesk "github.com/robotalks/deskbridge/pkg/sim/desk"
)

type testCommand struct {
	msg   fx.Message
	reply fx.Message
}

func (c *testCommand) Msg() fx.Message { return c.msg }

func (c *testCommand) Done(reply fx.Message) error {
	c.reply = reply
	return nil
}

type testRegistrar struct {
	events []*msgs.DeskStatus
	states []string
}

func (r *testRegistrar) SendEvent(_ context.Context, msg fx.Message) error {
	r.events = append(r.events, msg.(*msgs.DeskStatus))
	return nil
}

func (r *testRegistrar) PublishState(_ context.Context, name, value string) error {
	r.states = append(r.states, name+"="+value)
	return nil
}

func (r *testRegistrar) take() ([]*msgs.DeskStatus, []string) {
	events, states := r.events, r.states
	r.events, r.states = nil, nil
	return events, states
}

type ctlTestEnv struct {
	sim  *simdesk.Desk
	reg  *testRegistrar
	ctl  *Controller
	loop *fx.Loop
}

func newCtlTestEnv(height float64) *ctlTestEnv {
	e := &ctlTestEnv{sim: simdesk.New(height), reg: &testRegistrar{}}
	deskEnv := &env.Env{Registrar: &comm.RegistrarMux{}}
	deskEnv.Registrar.Add(e.reg)
	e.ctl = NewController(deskEnv, e.sim, nil)
	e.loop = fx.NewLoop().Add(deskEnv, e.ctl)
	return e
}

func (e *ctlTestEnv) step() {
	e.loop.Step(context.Background())
}

func (e *ctlTestEnv) do(msg fx.Message) fx.Message {
	cmd := &testCommand{msg: msg}
	e.loop.PostMessage(&l1.CommandMsg{Command: cmd})
	e.step()
	return cmd.reply
}

// doTriggered processes msg in an iteration started by the command's arrival.
func (e *ctlTestEnv) doTriggered(msg fx.Message) fx.Message {
	cmd := &testCommand{msg: msg}
	e.loop.PostMessage(&l1.CommandMsg{Command: cmd})
	e.loop.StepTriggered(context.Background())
	return cmd.reply
}

type remoteLink struct {
	in []byte
}

func (l *remoteLink) Write(p []byte) (int, error) { return len(p), nil }

func (l *remoteLink) Drain() []byte {
	data := l.in
	l.in = nil
	return data
}

func TestControllerStatus(t *testing.T) {
	e := newCtlTestEnv(30)
	reply := e.do(&msgs.DeskStatusQuery{})
	// the query is answered before the first status frame is decoded.
	require.Equal(t, &msgs.DeskStatusReply{Status: &msgs.DeskStatus{}}, reply)

	events, states := e.reg.take()
	require.Len(t, events, 1)
	require.True(t, events[0].HeightKnown)
	require.InDelta(t, 29.9, events[0].Height, 1e-9)
	require.Equal(t, []string{"height=29.9"}, states)

	e.step()
	events, states = e.reg.take()
	require.Empty(t, events)
	require.Empty(t, states)

	reply = e.do(&msgs.DeskStatusQuery{})
	status := reply.(*msgs.DeskStatusReply).Status
	require.True(t, status.HeightKnown)
	require.False(t, status.Seeking)
}

func TestControllerGoToHeight(t *testing.T) {
	e := newCtlTestEnv(30)
	e.step()
	e.reg.take()

	require.IsType(t, &l1msgs.CommandOK{}, e.do(&msgs.DeskGoToHeight{Height: 31.5}))
	events, _ := e.reg.take()
	require.NotEmpty(t, events)
	require.True(t, events[len(events)-1].Seeking)
	require.Equal(t, 31.5, events[len(events)-1].Target)

	var all []*msgs.DeskStatus
	for i := 0; i < 10 && e.ctl.Bridge.State().Control() == desk.StateSeeking; i++ {
		e.step()
		events, _ = e.reg.take()
		all = append(all, events...)
	}
	require.Equal(t, desk.StateIdle, e.ctl.Bridge.State().Control())
	require.InDelta(t, 31.5, e.sim.Height(), desk.DefaultTolerance)
	require.NotEmpty(t, all)
	last := all[len(all)-1]
	require.False(t, last.Seeking)
	require.InDelta(t, e.sim.Height(), last.Height, 1e-9)
}

func TestControllerCommands(t *testing.T) {
	e := newCtlTestEnv(35)
	reply := e.do(&msgs.DeskGoUp{Distance: 1})
	require.EqualError(t, reply.(*l1msgs.CommandErr), desk.ErrHeightUnknown.Error())

	require.IsType(t, &l1msgs.CommandOK{}, e.do(&msgs.DeskGoDown{Distance: 2}))
	require.Equal(t, desk.StateSeeking, e.ctl.Bridge.State().Control())
	require.IsType(t, &l1msgs.CommandOK{}, e.do(&msgs.DeskStop{}))
	require.Equal(t, desk.StateIdle, e.ctl.Bridge.State().Control())

	e.sim.Received()
	require.IsType(t, &l1msgs.CommandOK{}, e.do(&msgs.DeskPressButton{Button: uint32(desk.ButtonPreset1), DurationMs: 300}))
	require.Equal(t, []desk.Button{desk.ButtonNone, desk.ButtonPreset1}, e.sim.Received())

	reply = e.do(&msgs.DeskPressButton{Button: 0x100})
	require.IsType(t, &l1msgs.CommandErr{}, reply)
}

func TestControllerUnsupported(t *testing.T) {
	e := newCtlTestEnv(30)
	reply := e.do(&l1msgs.CommandOK{})
	require.EqualError(t, reply.(*l1msgs.CommandErr), l1msgs.ErrUnsupportedCommand.Error())
}

func TestControllerTriggeredStep(t *testing.T) {
	e := newCtlTestEnv(30)
	e.step()
	require.IsType(t, &l1msgs.CommandOK{}, e.do(&msgs.DeskGoToHeight{Height: 33}))
	require.Equal(t, []desk.Button{desk.ButtonNone, desk.ButtonUp}, e.sim.Received())
	code := e.sim.Code()

	for i := 0; i < 3; i++ {
		reply := e.doTriggered(&msgs.DeskStatusQuery{})
		require.True(t, reply.(*msgs.DeskStatusReply).Status.Seeking)
	}
	require.Empty(t, e.sim.Received())
	require.Equal(t, code, e.sim.Code())

	e.step()
	require.Equal(t, []desk.Button{desk.ButtonUp}, e.sim.Received())
}

func TestControllerGoToCurrentHeight(t *testing.T) {
	e := newCtlTestEnv(30)
	e.step()
	e.reg.take()

	require.IsType(t, &l1msgs.CommandOK{}, e.do(&msgs.DeskGoToHeight{Height: 30}))
	require.Equal(t, desk.StateIdle, e.ctl.Bridge.State().Control())
	events, states := e.reg.take()
	require.Len(t, events, 1)
	require.False(t, events[0].Seeking)
	require.Empty(t, states)

	require.IsType(t, &l1msgs.CommandOK{}, e.do(&msgs.DeskStop{}))
	events, _ = e.reg.take()
	require.Len(t, events, 1)

	require.IsType(t, &l1msgs.CommandOK{}, e.do(&msgs.DeskPressButton{Button: uint32(desk.ButtonMemory)}))
	events, _ = e.reg.take()
	require.Empty(t, events)
}

func TestControllerCounters(t *testing.T) {
	sim := simdesk.New(30)
	remote := &remoteLink{}
	deskEnv := &env.Env{Registrar: &comm.RegistrarMux{}}
	ctl := NewController(deskEnv, sim, remote)
	loop := fx.NewLoop().Add(deskEnv, ctl)
	loop.Step(context.Background())
	require.NoError(t, ctl.Bridge.GoToHeight(33))

	remote.in = []byte{0xa5, 0x00, 0x20, 0x20, 0xff}
	loop.Step(context.Background())
	require.Equal(t, uint64(5), ctl.Status().Suppressed)

	port := serial.NewTestablePort()
	line := serial.NewLine("remote", port)
	line.Capacity = 2
	ctl.Lines = append(ctl.Lines, line)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go line.Run(ctx)
	port.Inject(1, 2, 3, 4, 5)
	deadline := time.Now().Add(time.Second)
	for ctl.Status().Overflow == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, uint64(3), ctl.Status().Overflow)
}
