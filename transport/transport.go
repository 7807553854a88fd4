package transport

import (
	"errors"
	"net"
	"strconv"
)

// Errors returned by the transport package.
var (
	ErrUnavailable = errors.New("transport: unavailable")
	ErrNilHandler  = errors.New("transport: nil handler")
	ErrEmptyHost   = errors.New("transport: empty host")
	ErrBadPort     = errors.New("transport: bad port")
	ErrClosed      = errors.New("transport: connection closed")
	ErrConnect     = errors.New("transport: connect failed")
)

// Endpoint identifies the remote side of a connection.
type Endpoint struct {
	Host string
	Port int
}

// String returns the endpoint as host:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Handler receives the events of a single connection.
//
// A non-nil error returned from a Handler method is treated as fatal for the
// connection: it is logged and the connection is closed.
type Handler interface {
	// HandleData is called with every chunk of bytes read from the remote side.
	// The slice is owned by the handler.
	HandleData(p []byte, remote Endpoint) error

	// HandleError is called when the connection fails permanently, either
	// while connecting or while reading.
	HandleError(err error) error

	// HandleClose is called once after the connection was closed locally.
	HandleClose() error

	// HandleDisconnect is called when the remote side went away
	// (EOF, reset, aborted).
	HandleDisconnect(err error) error
}

// Conn is an open, or opening, connection returned by Transport.Open.
type Conn interface {
	// Send queues p for writing. It never blocks on the network.
	Send(p []byte) error

	// Close closes the connection. Calling Close more than once is a no-op.
	Close() error

	// Host returns the host the connection was opened to.
	Host() string

	// Port returns the port the connection was opened to.
	Port() int
}

// Transport opens byte-stream connections.
//
// Open returns before the connection is established. It must not call h
// before it returns; events are reported later through the handler.
type Transport interface {
	Open(host string, port int, h Handler) (Conn, error)
}

// Dispatcher runs handler invocations. Post reports false when fn was
// dropped because the dispatcher no longer accepts work.
type Dispatcher interface {
	Post(fn func()) bool
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(fn func()) bool

// Post calls f(fn).
func (f DispatchFunc) Post(fn func()) bool {
	return f(fn)
}

// Inline runs every task on the goroutine that produced the event. Handlers
// used with Inline must be safe for concurrent use.
var Inline Dispatcher = DispatchFunc(func(fn func()) bool {
	fn()
	return true
})
