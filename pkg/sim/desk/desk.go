// Package desk simulates the motor controller of a desk.
package desk

import (
	core "github.com/robotalks/deskbridge/pkg/desk"
)

// Desk is a simulated motor controller. It implements the desk side
// Link of a core.Bridge: command frames written to it move the desk by
// one height code per Up/Down frame, and every Drain reports the
// current height in one status frame, like the periodic status of a
// real desk.
type Desk struct {
	Scale core.Scale

	code     byte
	partial  []byte
	out      [core.StatusFrameSize]byte
	received []core.Button
}

// New creates a Desk at the height closest to height.
func New(height float64) *Desk {
	d := &Desk{Scale: core.DefaultScale}
	d.code = d.Scale.Code(height)
	return d
}

// Height returns the simulated height.
func (d *Desk) Height() float64 {
	h, _ := d.Scale.Height(d.code)
	return h
}

// Code returns the simulated height code.
func (d *Desk) Code() byte {
	return d.code
}

// Received returns and clears the buttons of command frames received.
func (d *Desk) Received() []core.Button {
	buttons := d.received
	d.received = nil
	return buttons
}

// Write implements io.Writer. Bytes not forming a command frame are ignored.
func (d *Desk) Write(p []byte) (int, error) {
	d.partial = append(d.partial, p...)
	for len(d.partial) >= core.CommandFrameSize {
		button, ok := core.ParseCommandFrame(d.partial)
		if !ok {
			d.partial = d.partial[1:]
			continue
		}
		d.partial = d.partial[core.CommandFrameSize:]
		d.press(button)
	}
	if len(d.partial) == 0 {
		d.partial = nil
	}
	return len(p), nil
}

// Drain implements core.Link.
func (d *Desk) Drain() []byte {
	d.out = core.EncodeStatus(d.code)
	return d.out[:]
}

func (d *Desk) press(button core.Button) {
	d.received = append(d.received, button)
	switch button {
	case core.ButtonUp:
		if d.code < d.Scale.CodeMax {
			d.code++
		}
	case core.ButtonDown:
		if d.code > d.Scale.CodeMin {
			d.code--
		}
	}
}
