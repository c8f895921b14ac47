package serial

import (
	"context"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/deskbridge/pkg/framework"
)

// DefaultLineCapacity is the number of received bytes buffered between drains.
const DefaultLineCapacity = 4096

// Line buffers bytes received from a Port so they can be consumed
// without blocking. Run reads the port in the background; Drain and
// Write are used from the loop.
type Line struct {
	LineName string
	Port     Port
	Capacity int

	lock     sync.Mutex
	pending  []byte
	spare    []byte
	overflow int

	writeLock sync.Mutex
}

// NewLine creates a Line reading from port.
func NewLine(name string, port Port) *Line {
	return &Line{LineName: name, Port: port, Capacity: DefaultLineCapacity}
}

// Name implements Named.
func (l *Line) Name() string {
	return l.LineName
}

// Run implements Runnable.
func (l *Line) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, l.Port, l.readLoop)
}

func (l *Line) readLoop() error {
	buf := make([]byte, 256)
	for {
		n, err := l.Port.Read(buf)
		if n > 0 {
			l.receive(buf[:n])
		}
		if err != nil {
			return err
		}
	}
}

func (l *Line) receive(data []byte) {
	l.lock.Lock()
	defer l.lock.Unlock()
	capacity := l.Capacity
	if capacity <= 0 {
		capacity = DefaultLineCapacity
	}
	if room := capacity - len(l.pending); len(data) > room {
		if room < 0 {
			room = 0
		}
		l.overflow += len(data) - room
		glog.Warningf("%s: buffer full, %d bytes dropped", l.LineName, len(data)-room)
		data = data[:room]
	}
	l.pending = append(l.pending, data...)
}

// Drain returns bytes received since the last call. The slice is reused
// by the next call.
func (l *Line) Drain() []byte {
	l.lock.Lock()
	data := l.pending
	l.pending = l.spare[:0]
	l.lock.Unlock()
	l.spare = data
	return data
}

// Overflow returns the number of bytes dropped because Drain wasn't
// called often enough.
func (l *Line) Overflow() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.overflow
}

// Write writes to the port.
func (l *Line) Write(p []byte) (int, error) {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	return l.Port.Write(p)
}
