package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vitalvas/sockit/eventloop"
	"github.com/vitalvas/sockit/transport"
)

// WebSocket is a client connection speaking the legacy framing protocol.
type WebSocket struct {
	id        string
	url       string
	endpoint  Endpoint
	protocols []string
	origin    string
	logger    *slog.Logger
	batcher   *batcher
	loop      *eventloop.Loop // nil when events run inline
	ownLoop   *eventloop.Loop // private loop, stopped once closed

	mu             sync.Mutex
	state          ReadyState
	conn           transport.Conn
	decoder        Decoder
	outbound       []string
	bufferedAmount int

	onOpen    func()
	onClose   func()
	onMessage func(MessageEvent)
	onError   func(error)
}

// ID returns a unique identifier of the connection, used in logs.
func (w *WebSocket) ID() string { return w.id }

// URL returns the URL passed to Dial.
func (w *WebSocket) URL() string { return w.url }

// Endpoint returns the parsed URL.
func (w *WebSocket) Endpoint() Endpoint { return w.endpoint }

// Protocols returns the protocols requested in the handshake.
func (w *WebSocket) Protocols() []string {
	return append([]string(nil), w.protocols...)
}

// ReadyState returns the current state.
func (w *WebSocket) ReadyState() ReadyState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// BufferedAmount returns the number of bytes passed to Send while Closed.
func (w *WebSocket) BufferedAmount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bufferedAmount
}

// Buffered returns a copy of the payloads passed to Send while Closed.
func (w *WebSocket) Buffered() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.outbound...)
}

// CallbackInterval returns the delay between batched deliveries.
func (w *WebSocket) CallbackInterval() time.Duration {
	return w.batcher.getInterval()
}

// SetCallbackInterval sets the delay between batched deliveries. Zero
// delivers every message as soon as it is decoded; negative values count as
// zero.
func (w *WebSocket) SetCallbackInterval(d time.Duration) {
	w.batcher.setInterval(d)
}

// OnOpen sets the callback fired once the handshake response arrived.
func (w *WebSocket) OnOpen(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onOpen = fn
}

// OnClose sets the callback fired when the connection closes.
func (w *WebSocket) OnClose(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClose = fn
}

// OnMessage sets the callback receiving messages.
func (w *WebSocket) OnMessage(fn func(MessageEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onMessage = fn
}

// OnError sets the callback fired on transport errors after the connection
// has left the Connecting state.
func (w *WebSocket) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Send frames v as text and writes it. v is converted with its String method
// if it has one, and with fmt.Sprint otherwise.
//
// While Open it reports true once the frame was handed to the transport.
// While Closed the text is buffered, BufferedAmount grows by its length in
// bytes and Send reports false with a nil error. While Connecting it returns
// ErrConnecting.
func (w *WebSocket) Send(v any) (bool, error) {
	data := stringify(v)

	w.mu.Lock()
	switch w.state {
	case Connecting:
		w.mu.Unlock()
		return false, ErrConnecting
	case Closed:
		w.outbound = append(w.outbound, data)
		w.bufferedAmount += len(data)
		w.mu.Unlock()
		return false, nil
	}
	conn := w.conn
	w.mu.Unlock()

	if err := conn.Send(EncodeFrame(data)); err != nil {
		return false, err
	}

	return true, nil
}

// Close closes the transport connection and moves to Closed at once. It
// does nothing when already Closed.
//
// Messages still waiting for a batched flush are then delivered and OnClose
// fires. With an event loop this happens in a task posted to the loop, so
// the callback in progress and any delivery it belongs to finish first;
// without one it happens before Close returns.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.state == Closed {
		w.mu.Unlock()
		return nil
	}
	w.state = Closed
	conn := w.conn
	w.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}

	w.logger.Info("websocket closed")

	if w.loop == nil || !w.loop.Post(w.finishClose) {
		w.finishClose()
	}

	return err
}

// finishClose delivers the queued messages, fires OnClose and stops the
// private loop.
func (w *WebSocket) finishClose() {
	w.batcher.drain()

	w.mu.Lock()
	onClose := w.onClose
	w.mu.Unlock()

	if onClose != nil {
		onClose()
	}

	w.release()
}

func (w *WebSocket) release() {
	if w.ownLoop != nil {
		w.ownLoop.Stop()
	}
}

func (w *WebSocket) dispatchMessage(ev MessageEvent) {
	w.mu.Lock()
	onMessage := w.onMessage
	w.mu.Unlock()

	if onMessage != nil {
		onMessage(ev)
	}
}

func (w *WebSocket) handleData(p []byte, remote transport.Endpoint) error {
	w.mu.Lock()

	switch w.state {
	case Closed:
		w.mu.Unlock()
		return ErrDataAfterClose

	case Connecting:
		// Whatever arrives first is the handshake response. It is not
		// validated.
		w.state = Open
		onOpen := w.onOpen
		w.mu.Unlock()

		w.logger.Info("websocket open")

		if onOpen != nil {
			onOpen()
		}
		return nil
	}

	msgs := w.decoder.Decode(p)
	w.mu.Unlock()

	if len(msgs) == 0 {
		return nil
	}

	origin := remote.String()
	events := make([]MessageEvent, len(msgs))
	for i, m := range msgs {
		events[i] = NewMessageEvent(m, origin)
	}

	w.batcher.add(events...)

	return nil
}

func (w *WebSocket) handleError(err error) error {
	w.mu.Lock()

	if w.state == Connecting {
		w.state = Closed
		conn := w.conn
		w.mu.Unlock()

		w.logger.Warn("websocket failed while connecting", "error", err)

		if conn != nil {
			conn.Close()
		}
		w.batcher.drain()
		w.release()
		return nil
	}

	onError := w.onError
	w.mu.Unlock()

	w.logger.Error("websocket transport error", "error", err)

	if onError != nil {
		onError(err)
	}
	return nil
}

// handler adapts a WebSocket to transport.Handler without exporting the
// event methods.
type handler struct {
	w *WebSocket
}

func (h handler) HandleData(p []byte, remote transport.Endpoint) error {
	return h.w.handleData(p, remote)
}

func (h handler) HandleError(err error) error {
	return h.w.handleError(err)
}

func (h handler) HandleClose() error {
	return h.w.Close()
}

func (h handler) HandleDisconnect(err error) error {
	h.w.logger.Warn("websocket disconnected", "error", err)
	return h.w.Close()
}
