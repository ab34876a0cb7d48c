package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

type connState int32

const (
	stateOpen connState = iota
	stateClosing
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Conn is one WebSocket peer. It is created and torn down by the
// ConnectionManager; the Registry only holds it as a Subscriber.
type Conn struct {
	id        ConnID
	ws        *websocket.Conn
	writer    *clientWriter
	state     atomic.Int32
	closeOnce sync.Once
}

var _ Subscriber = (*Conn)(nil)

func (c *Conn) ID() ConnID { return c.id }

func (c *Conn) Alive() bool {
	return connState(c.state.Load()) == stateOpen
}

func (c *Conn) Push(msg []byte) error {
	if !c.Alive() {
		return ErrConnClosed
	}
	return c.writer.enqueue(msg)
}

func (c *Conn) setState(s connState) {
	c.state.Store(int32(s))
}
