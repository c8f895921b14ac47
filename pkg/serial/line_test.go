package serial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func drainUntil(t *testing.T, l *Line, size int) []byte {
	var data []byte
	deadline := time.Now().Add(time.Second)
	for len(data) < size {
		if time.Now().After(deadline) {
			t.Fatalf("received %d bytes, expect %d", len(data), size)
		}
		data = append(data, l.Drain()...)
		time.Sleep(time.Millisecond)
	}
	return data
}

func runLine(l *Line) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Run(ctx)
	}()
	return cancel, errCh
}

func TestLineDrain(t *testing.T) {
	port := NewTestablePort()
	l := NewLine("test", port)
	require.Equal(t, "test", l.Name())
	require.Empty(t, l.Drain())

	cancel, errCh := runLine(l)
	port.Inject(0x98, 0x98, 0x00)
	port.Inject(0x00, 0x4c, 0x4c)
	require.Equal(t, []byte{0x98, 0x98, 0x00, 0x00, 0x4c, 0x4c}, drainUntil(t, l, 6))

	port.Inject(0x01)
	require.Equal(t, []byte{0x01}, drainUntil(t, l, 1))

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.True(t, port.Closed())
}

func TestLineWrite(t *testing.T) {
	port := NewTestablePort()
	l := NewLine("test", port)
	n, err := l.Write([]byte{0xd8, 0xd8, 0x66, 0x01, 0x01})
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte{0xd8, 0xd8, 0x66, 0x01, 0x01}, port.Written())

	port.WriteError = errors.New("write failed")
	_, err = l.Write([]byte{0x00})
	require.EqualError(t, err, "write failed")
	require.Empty(t, port.Written())
}

func TestLineOverflow(t *testing.T) {
	l := NewLine("test", NewTestablePort())
	l.Capacity = 4
	l.receive([]byte{1, 2, 3})
	l.receive([]byte{4, 5, 6})
	require.Equal(t, 2, l.Overflow())
	require.Equal(t, []byte{1, 2, 3, 4}, l.Drain())
	l.receive([]byte{7})
	require.Equal(t, []byte{7}, l.Drain())
	require.Empty(t, l.Drain())
}

func TestLinePortClosed(t *testing.T) {
	port := NewTestablePort()
	l := NewLine("test", port)
	cancel, errCh := runLine(l)
	defer cancel()
	port.Close()
	require.Equal(t, ErrPortClosed, <-errCh)
}
