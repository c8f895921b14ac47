package serial

import (
	"bytes"
	"errors"
	"sync"
)

// ErrPortClosed is returned by TestablePort after Close.
var ErrPortClosed = errors.New("serial port closed")

// TestablePort is an in-memory Port for tests and simulation.
// Reads block until data is injected or the port is closed.
type TestablePort struct {
	lock    sync.Mutex
	cond    *sync.Cond
	readBuf bytes.Buffer
	written bytes.Buffer
	closed  bool

	// WriteError is returned by the next Write if set.
	WriteError error
}

// NewTestablePort creates a TestablePort.
func NewTestablePort() *TestablePort {
	p := &TestablePort{}
	p.cond = sync.NewCond(&p.lock)
	return p
}

// Read implements io.Reader.
func (p *TestablePort) Read(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for !p.closed && p.readBuf.Len() == 0 {
		p.cond.Wait()
	}
	if p.closed {
		return 0, ErrPortClosed
	}
	return p.readBuf.Read(b)
}

// Write implements io.Writer.
func (p *TestablePort) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return 0, ErrPortClosed
	}
	if err := p.WriteError; err != nil {
		p.WriteError = nil
		return 0, err
	}
	return p.written.Write(b)
}

// Close implements io.Closer.
func (p *TestablePort) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.closed = true
	p.cond.Broadcast()
	return nil
}

// Inject makes data available to Read.
func (p *TestablePort) Inject(data ...byte) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.readBuf.Write(data)
	p.cond.Broadcast()
}

// Written returns and clears the bytes written so far.
func (p *TestablePort) Written() []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	data := append([]byte(nil), p.written.Bytes()...)
	p.written.Reset()
	return data
}

// Closed reports whether Close was called.
func (p *TestablePort) Closed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}
