package broadcast

import "errors"

// ConnID is the stable handle of a connection, assigned by the ConnectionManager.
type ConnID uint64

// Subscriber is a room member that can receive pushed messages.
type Subscriber interface {
	ID() ConnID
	Alive() bool
	Push(msg []byte) error
}

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)
