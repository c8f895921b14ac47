package desk

import (
	"io"
	"time"

	"github.com/golang/glog"
)

// CommandEncoder writes command frames to the desk link.
type CommandEncoder struct {
	W io.Writer
}

// Send writes the command frame for mask as a single write.
func (e *CommandEncoder) Send(mask Button) error {
	if e.W == nil {
		glog.Error("desk link not initialized")
		return ErrLinkNotReady
	}
	frame := EncodeCommand(mask)
	if glog.V(4) {
		glog.Infof("TX -> DESK: % X", frame[:])
	}
	if _, err := e.W.Write(frame[:]); err != nil {
		glog.Errorf("write command %s error: %v", mask, err)
		return err
	}
	return nil
}

// SendEmpty releases all buttons.
func (e *CommandEncoder) SendEmpty() error {
	return e.Send(ButtonNone)
}

// Press releases any held button and presses mask for one tick.
// duration is advisory: the press lasts until the next frame the desk
// receives, which is one tick if nothing else is sent.
func (e *CommandEncoder) Press(mask Button, duration time.Duration) error {
	glog.V(2).Infof("press %s (%v)", mask, duration)
	if err := e.SendEmpty(); err != nil {
		return err
	}
	return e.Send(mask)
}
