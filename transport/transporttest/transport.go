// Package transporttest provides an in-memory transport.Transport whose
// events are driven by the test.
package transporttest

import (
	"slices"
	"sync"

	"github.com/vitalvas/sockit/transport"
)

// Transport records every connection it opens. Events are delivered
// synchronously on the calling goroutine.
type Transport struct {
	mu    sync.Mutex
	conns []*Conn

	// OpenErr, when set, is returned by Open.
	OpenErr error
}

// New creates an empty fake transport.
func New() *Transport {
	return &Transport{}
}

// Open implements transport.Transport.
func (t *Transport) Open(host string, port int, h transport.Handler) (transport.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.OpenErr != nil {
		return nil, t.OpenErr
	}

	c := &Conn{host: host, port: port, handler: h}
	t.conns = append(t.conns, c)
	return c, nil
}

// Conns returns the connections opened so far.
func (t *Transport) Conns() []*Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.conns)
}

// Last returns the most recently opened connection, or nil.
func (t *Transport) Last() *Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

// Conn is a fake connection.
type Conn struct {
	host    string
	port    int
	handler transport.Handler

	mu         sync.Mutex
	sent       [][]byte
	closeCount int
	sendErr    error
}

// Host implements transport.Conn.
func (c *Conn) Host() string { return c.host }

// Port implements transport.Conn.
func (c *Conn) Port() int { return c.port }

// Send implements transport.Conn.
func (c *Conn) Send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return c.sendErr
	}
	if c.closeCount > 0 {
		return transport.ErrClosed
	}

	c.sent = append(c.sent, slices.Clone(p))
	return nil
}

// Close implements transport.Conn. The first call reports HandleClose to the
// handler, like the TCP transport does.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closeCount++
	first := c.closeCount == 1
	c.mu.Unlock()

	if first {
		return c.handler.HandleClose()
	}
	return nil
}

// SetSendError makes subsequent Send calls fail with err.
func (c *Conn) SetSendError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// Sent returns every chunk passed to Send.
func (c *Conn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]byte, len(c.sent))
	for i, p := range c.sent {
		out[i] = slices.Clone(p)
	}
	return out
}

// CloseCount returns how many times Close was called.
func (c *Conn) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}

// Remote returns the endpoint reported with delivered data.
func (c *Conn) Remote() transport.Endpoint {
	return transport.Endpoint{Host: c.host, Port: c.port}
}

// Deliver reports p as received data.
func (c *Conn) Deliver(p []byte) error {
	return c.handler.HandleData(slices.Clone(p), c.Remote())
}

// Fail reports a transport error.
func (c *Conn) Fail(err error) error {
	return c.handler.HandleError(err)
}

// Hangup reports a close event from the transport.
func (c *Conn) Hangup() error {
	return c.handler.HandleClose()
}

// Disconnect reports that the remote side went away.
func (c *Conn) Disconnect(err error) error {
	return c.handler.HandleDisconnect(err)
}
