package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vitalvas/sockit/eventloop"
	"github.com/vitalvas/sockit/transport"
)

// DefaultDialer is a dialer with all fields set to the default values.
var DefaultDialer = &Dialer{}

// Dialer contains options for connecting to a WebSocket server.
type Dialer struct {
	// Transport opens the connection. Defaults to a transport.TCP using
	// TransportOptions and dispatching on the connection's event loop.
	Transport transport.Transport

	// TransportOptions configures the default TCP transport. It is ignored
	// when Transport is set.
	TransportOptions transport.Options

	// Loop runs transport events, batched deliveries and the end of Close.
	// The caller owns it and must run it. When nil a private loop is
	// started, unless both Transport and Scheduler are set, in which case
	// events run on whatever goroutine the transport reports them from.
	Loop *eventloop.Loop

	// Scheduler is the timer source of batched delivery. Defaults to Loop.
	Scheduler Scheduler

	// Origin is the value of the Origin handshake header. Defaults to
	// "null".
	Origin string

	// CallbackInterval is the initial delay between batched deliveries.
	// Zero delivers every message as soon as it is decoded; negative values
	// count as zero.
	CallbackInterval time.Duration

	// Charset selects how received frames are turned into strings.
	Charset Charset

	// Logger receives connection logs. Defaults to discarding.
	Logger *slog.Logger
}

// Dial connects using DefaultDialer.
func Dial(rawURL string, protocols any) (*WebSocket, error) {
	return DefaultDialer.Dial(rawURL, protocols)
}

// Dial parses rawURL, opens a transport connection to it and sends the
// opening handshake. It returns as soon as the handshake has been handed to
// the transport; the WebSocket is Connecting until the server answers.
//
// protocols may be nil, a string, a []string or any value that is turned
// into a single protocol name, see ProtocolList.
//
// Errors parsing the URL or opening the transport are returned before any
// data is sent. A connection that fails later moves straight to Closed
// without firing any callback.
func (d *Dialer) Dial(rawURL string, protocols any) (*WebSocket, error) {
	ep, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	origin := d.Origin
	if origin == "" {
		origin = defaultOrigin
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := &WebSocket{
		id:        uuid.NewString(),
		url:       rawURL,
		endpoint:  ep,
		protocols: ProtocolList(protocols),
		origin:    origin,
		state:     Connecting,
		decoder:   Decoder{Charset: d.Charset},
	}
	w.logger = logger.With("id", w.id, "host", ep.Host, "port", ep.Port)

	loop := d.Loop
	if loop == nil && (d.Transport == nil || d.Scheduler == nil) {
		loop = &eventloop.Loop{Logger: w.logger}
		w.ownLoop = loop
		go loop.Run(context.Background())
	}
	w.loop = loop

	tr := d.Transport
	if tr == nil {
		opts := d.TransportOptions
		if ep.isIPv6() {
			opts.IPv6 = true
		}

		tr = &transport.TCP{
			Options:    opts,
			Dispatcher: loop,
			Logger:     w.logger,
		}
	}

	var sched Scheduler = loop
	if d.Scheduler != nil {
		sched = d.Scheduler
	}
	w.batcher = newBatcher(sched, d.CallbackInterval, w.dispatchMessage)

	handshake := BuildHandshake(ep, w.origin, w.protocols)

	// Held until conn is set so early transport events wait for it.
	w.mu.Lock()
	conn, err := tr.Open(ep.Host, ep.Port, handler{w})
	if err != nil {
		w.state = Closed
		w.mu.Unlock()
		w.release()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	w.conn = conn
	w.mu.Unlock()

	if err := conn.Send(handshake); err != nil {
		w.mu.Lock()
		w.state = Closed
		w.mu.Unlock()
		conn.Close()
		w.release()
		return nil, fmt.Errorf("websocket: send handshake: %w", err)
	}

	w.logger.Info("websocket handshake sent", "resource", ep.Resource, "protocols", w.protocols)

	return w, nil
}
