package desk

import (
	"io"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/deskbridge/pkg/framework"
)

// Link is one serial connection of the bridge.
type Link interface {
	io.Writer
	// Drain returns all bytes received since the last call without
	// blocking. The returned slice is valid until the next call.
	Drain() []byte
}

// Bridge sits between the desk and its remote.
type Bridge struct {
	Decoder  FrameDecoder
	Position PositionController

	desk    Link
	remote  Link
	encoder CommandEncoder
	state   State

	// number of remote bytes dropped while seeking.
	suppressed int
}

// NewBridge creates a Bridge. The desk link may be nil, in which case
// commands are rejected with ErrLinkNotReady.
func NewBridge(desk, remote Link, sink HeightSink) *Bridge {
	b := &Bridge{desk: desk, remote: remote}
	if desk != nil {
		b.encoder.W = desk
	}
	b.Decoder.Scale = DefaultScale
	b.Decoder.Sink = sink
	b.Position.Tolerance = DefaultTolerance
	b.Position.Encoder = &b.encoder
	return b
}

// State returns a snapshot of the state.
func (b *Bridge) State() State {
	return b.state
}

// Height returns the last decoded height.
func (b *Bridge) Height() (float64, bool) {
	return b.state.Height()
}

// Suppressed returns the number of remote bytes dropped while seeking.
func (b *Bridge) Suppressed() int {
	return b.suppressed
}

// GoToHeight starts moving the desk to height.
func (b *Bridge) GoToHeight(height float64) error {
	return b.Position.GoToHeight(&b.state, height)
}

// GoUp moves the desk up by distance.
func (b *Bridge) GoUp(distance float64) error {
	return b.Position.GoUp(&b.state, distance)
}

// GoDown moves the desk down by distance.
func (b *Bridge) GoDown(distance float64) error {
	return b.Position.GoDown(&b.state, distance)
}

// Stop abandons the current move.
func (b *Bridge) Stop() error {
	return b.Position.Stop(&b.state)
}

// PressButton sends one command frame regardless of the control state.
func (b *Bridge) PressButton(mask Button, duration time.Duration) error {
	return b.encoder.Press(mask, duration)
}

// Tick relays buffered bytes in both directions, then runs one step of
// the position controller.
func (b *Bridge) Tick() error {
	var errs fx.AggregatedError
	errs.Add(b.Relay(), b.Position.Evaluate(&b.state))
	return errs.Aggregate()
}

// Relay relays buffered bytes in both directions without moving the
// desk. Remote bytes are always handled before desk bytes.
func (b *Bridge) Relay() error {
	var errs fx.AggregatedError
	errs.Add(b.relayRemote(), b.relayDesk())
	return errs.Aggregate()
}

func (b *Bridge) relayRemote() error {
	if b.remote == nil {
		return nil
	}
	data := b.remote.Drain()
	if len(data) == 0 {
		return nil
	}
	if b.state.control == StateSeeking || b.desk == nil {
		b.suppressed += len(data)
		if glog.V(4) {
			glog.Infof("REMOTE -> DESK (dropped): % X", data)
		}
		return nil
	}
	if glog.V(4) {
		glog.Infof("REMOTE -> DESK: % X", data)
	}
	_, err := b.desk.Write(data)
	return err
}

func (b *Bridge) relayDesk() error {
	if b.desk == nil {
		return nil
	}
	data := b.desk.Drain()
	if len(data) == 0 {
		return nil
	}
	if glog.V(4) {
		glog.Infof("DESK -> REMOTE: % X", data)
	}
	var err error
	if b.remote != nil {
		_, err = b.remote.Write(data)
	}
	for _, c := range data {
		b.Decoder.Feed(&b.state, c)
	}
	return err
}
