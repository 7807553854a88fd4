package websocket

import "strconv"

// ReadyState is the lifecycle state of a WebSocket.
type ReadyState int

// Ready states, with the numeric values used by script clients.
const (
	Connecting ReadyState = 0
	Open       ReadyState = 1
	Closed     ReadyState = 2
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "readystate(" + strconv.Itoa(int(s)) + ")"
	}
}

// MessageEvent is a received message. It is a read-only value.
type MessageEvent struct {
	data   string
	origin string
}

// NewMessageEvent returns a MessageEvent carrying data received from origin.
func NewMessageEvent(data, origin string) MessageEvent {
	return MessageEvent{data: data, origin: origin}
}

// Data returns the message text.
func (e MessageEvent) Data() string { return e.data }

// Origin returns the remote endpoint as host:port.
func (e MessageEvent) Origin() string { return e.origin }
