// Package websocket carries L1 messages over WebSocket connections,
// one binary message per packet.
package websocket

import (
	"time"

	"golang.org/x/net/websocket"
)

const (
	// MaxPacketSize limits the size of a received packet.
	MaxPacketSize = 64 << 10
	// WriteTimeout limits how long a slow peer can block WritePacket.
	WriteTimeout = 2 * time.Second
)

// ReadWriter implements PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	conn.MaxPayloadBytes = MaxPacketSize
	return (*ReadWriter)(conn)
}

func (p *ReadWriter) conn() *websocket.Conn {
	return (*websocket.Conn)(p)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.conn(), &pkt)
	return
}

// WritePacket implements PacketWriter. Events are written from the
// control loop, so a peer not reading must not stall it.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if err := p.conn().SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return err
	}
	return websocket.Message.Send(p.conn(), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.conn().Close()
}
