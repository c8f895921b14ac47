package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

type recorder struct {
	calls []string
}

func (r *recorder) ctl(name string, fn func(ControlContext)) Controller {
	return ControlFunc(func(cc ControlContext) error {
		r.calls = append(r.calls, name)
		if fn != nil {
			fn(cc)
		}
		return nil
	})
}

func collectMsgs(cc ControlContext, take bool) []int {
	var vals []int
	cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
		if m, ok := mctx.CurrentMessage().(*testMsg); ok {
			vals = append(vals, m.val)
			if take {
				mctx.MessageTaken()
			}
		}
	}))
	return vals
}

func TestLoopPriority(t *testing.T) {
	var r recorder
	loop := NewLoop()
	loop.AddController(PrLvPostProc, r.ctl("post", nil))
	loop.AddController(PrLvControl, r.ctl("control1", nil), r.ctl("control2", nil))
	loop.AddController(PrLvSense, r.ctl("sense", func(cc ControlContext) {
		require.Equal(t, PrLvSense, cc.PriorityLevel())
	}))
	loop.Step(context.Background())
	require.Equal(t, []string{"sense", "control1", "control2", "post"}, r.calls)
}

func TestLoopMessages(t *testing.T) {
	var r recorder
	var first, second, third []int
	loop := NewLoop()
	loop.AddController(PrLvHigh, r.ctl("first", func(cc ControlContext) {
		first = collectMsgs(cc, false)
		cc.Messages().AddMessages(&testMsg{val: 100})
	}))
	loop.AddController(PrLvNormal, r.ctl("second", func(cc ControlContext) {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			m := mctx.CurrentMessage().(*testMsg)
			second = append(second, m.val)
			if m.val == 1 {
				mctx.MessageTaken()
			}
			if m.val == 2 {
				mctx.StopProcessing()
			}
		}))
		cc.PostMessage(&testMsg{val: 4})
	}))
	loop.AddController(PrLvLow, r.ctl("third", func(cc ControlContext) {
		third = collectMsgs(cc, true)
	}))

	loop.PostMessage(&testMsg{val: 1})
	loop.PostMessage(&testMsg{val: 2})
	loop.PostMessage(&testMsg{val: 3})
	loop.Step(context.Background())
	require.Equal(t, []int{1, 2, 3}, first)
	require.Equal(t, []int{1, 2}, second)
	require.Equal(t, []int{2, 3, 100}, third)

	// posted during the iteration, received in the next one.
	first, second, third = nil, nil, nil
	loop.Step(context.Background())
	require.Equal(t, []int{4}, first)
	require.Equal(t, []int{4, 100}, second)
	require.Equal(t, []int{4, 100}, third)
}

func TestLoopRun(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond
	ticks := make(chan struct{}, 1)
	loop.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		select {
		case ticks <- struct{}{}:
		default:
		}
		return errors.New("logged and ignored")
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- loop.Run(ctx)
	}()
	<-ticks
	<-ticks
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

type runnableFunc func(context.Context) error

func (f runnableFunc) Run(ctx context.Context) error { return f(ctx) }

func TestLoopRunnerStops(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Hour
	triggered := make(chan struct{})
	var byTrigger bool
	loop.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		if vals := collectMsgs(cc, true); len(vals) > 0 {
			byTrigger = cc.Triggered()
			close(triggered)
		}
		return nil
	}))
	loop.AddRunnable(runnableFunc(func(ctx context.Context) error {
		loopCtl := LoopCtlFrom(ctx)
		loopCtl.PostMessage(&testMsg{val: 1})
		loopCtl.TriggerNext()
		<-triggered
		return errors.New("port closed")
	}))
	require.EqualError(t, loop.Run(context.Background()), "port closed")
	require.True(t, byTrigger)
}

func TestLoopTriggered(t *testing.T) {
	var triggered []bool
	loop := NewLoop()
	loop.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		triggered = append(triggered, cc.Triggered())
		return nil
	}))
	loop.Step(context.Background())
	loop.StepTriggered(context.Background())
	loop.Step(context.Background())
	require.Equal(t, []bool{false, true, false}, triggered)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	e1 := errors.New("e1")
	errs.Add(nil, e1)
	require.Equal(t, e1, errs.Aggregate())
	errs.Add(errors.New("e2"))
	require.EqualError(t, errs.Aggregate(), "multiple errors:\ne1\ne2")
}

func TestRunnerWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx)
	r.Go(NamedRun("canceled", runnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})), runnableFunc(func(context.Context) error {
		return errors.New("failed")
	}))
	require.EqualError(t, <-r.Stopped(), "failed")
	cancel()
	require.EqualError(t, r.Wait(), "failed")
}
