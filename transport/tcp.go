package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"sync"
	"syscall"

	"github.com/eapache/queue"
)

// TCP is a Transport backed by TCP sockets.
type TCP struct {
	// Options configures every socket opened by this transport.
	Options Options

	// Dispatcher runs handler calls. Defaults to Inline.
	Dispatcher Dispatcher

	// Logger receives connection lifecycle logs. Defaults to discarding.
	Logger *slog.Logger

	// DialContext overrides how the socket is dialed. Options that act on
	// the dialer (proxy, socket options) are not applied when it is set.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Open starts resolving and connecting to host:port in the background and
// returns immediately. Failures to connect are reported to h.HandleError.
func (t *TCP) Open(host string, port int, h Handler) (Conn, error) {
	if t == nil {
		return nil, ErrUnavailable
	}
	if h == nil {
		return nil, ErrNilHandler
	}
	if host == "" {
		return nil, ErrEmptyHost
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrBadPort, port)
	}

	dispatcher := t.Dispatcher
	if dispatcher == nil {
		dispatcher = Inline
	}

	logger := t.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &tcpConn{
		host:       host,
		port:       port,
		opts:       t.Options,
		handler:    h,
		dispatcher: dispatcher,
		logger:     logger.With("host", host, "port", port),
		dial:       t.DialContext,
		pending:    queue.New(),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		cancel:     cancel,
	}

	c.logger.Info("initializing tcp client", "options", t.Options)

	go c.run(ctx)

	return c, nil
}

type tcpConn struct {
	host       string
	port       int
	opts       Options
	handler    Handler
	dispatcher Dispatcher
	logger     *slog.Logger
	dial       func(ctx context.Context, network, addr string) (net.Conn, error)

	mu      sync.Mutex
	conn    net.Conn
	pending *queue.Queue // [][]byte waiting for the writer
	closed  bool

	wake   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

func (c *tcpConn) Host() string { return c.host }

func (c *tcpConn) Port() int { return c.port }

func (c *tcpConn) Send(p []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending.Add(slices.Clone(p))
	c.mu.Unlock()

	c.signal()
	return nil
}

func (c *tcpConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	nc := c.conn
	c.mu.Unlock()

	c.cancel()
	close(c.done)

	var err error
	if nc != nil {
		err = nc.Close()
	} else {
		c.logger.Warn("closing tcp client before it connected")
	}

	c.emit(c.handler.HandleClose)

	return err
}

func (c *tcpConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *tcpConn) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *tcpConn) run(ctx context.Context) {
	c.logger.Info("resolving host")

	nc, err := c.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.Warn("tcp connect was aborted")
			return
		}

		c.logger.Error("failed to connect to host", "error", err)
		c.emit(func() error {
			return c.handler.HandleError(fmt.Errorf("%w: %w", ErrConnect, err))
		})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		nc.Close()
		return
	}
	c.conn = nc
	c.mu.Unlock()

	c.logger.Info("connection established to host")

	go c.writeLoop(nc)
	c.signal()

	c.readLoop(nc)
}

func (c *tcpConn) connect(ctx context.Context) (net.Conn, error) {
	network := c.opts.network()
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))

	if c.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.DialTimeout)
		defer cancel()
	}

	if c.dial != nil {
		return c.dial(ctx, network, addr)
	}

	forward := &net.Dialer{}
	c.opts.applySocketOptions(forward, c.logger)

	d, err := c.opts.contextDialer(forward)
	if err != nil {
		return nil, err
	}

	nc, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	if tc, ok := nc.(*net.TCPConn); ok && c.opts.NoDelay != nil {
		if err := tc.SetNoDelay(*c.opts.NoDelay); err != nil {
			c.logger.Warn("failed to set nodelay", "error", err)
		}
	}

	return nc, nil
}

func (c *tcpConn) writeLoop(nc net.Conn) {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}

		for {
			c.mu.Lock()
			if c.closed || c.pending.Length() == 0 {
				c.mu.Unlock()
				break
			}
			p := c.pending.Remove().([]byte)
			c.mu.Unlock()

			if _, err := nc.Write(p); err != nil {
				if c.isClosed() {
					return
				}
				c.logger.Error("failed to send data", "error", err)
				c.emit(func() error { return c.handler.HandleError(err) })
				return
			}
		}
	}
}

func (c *tcpConn) readLoop(nc net.Conn) {
	remote := Endpoint{Host: c.host, Port: c.port}
	buf := make([]byte, c.opts.readBufferSize())

	for {
		n, err := nc.Read(buf)
		if n > 0 {
			p := slices.Clone(buf[:n])
			c.logger.Debug("received data", "bytes", n)
			c.emit(func() error { return c.handler.HandleData(p, remote) })
		}

		if err == nil {
			continue
		}

		if c.isClosed() {
			return
		}

		if isDisconnect(err) {
			c.logger.Warn("tcp client disconnected", "error", err)
			c.emit(func() error { return c.handler.HandleDisconnect(err) })
			return
		}

		c.logger.Error("failed to receive data", "error", err)
		c.emit(func() error { return c.handler.HandleError(err) })
		return
	}
}

// emit hands fn to the dispatcher. A handler error closes the connection.
func (c *tcpConn) emit(fn func() error) {
	ok := c.dispatcher.Post(func() {
		if err := fn(); err != nil {
			c.logger.Error("connection handler failed", "error", err)
			c.Close()
		}
	})
	if !ok {
		c.logger.Debug("dispatcher stopped, dropping event")
	}
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED)
}
