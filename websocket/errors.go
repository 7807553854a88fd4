package websocket

import "errors"

// Errors returned by the websocket package.
var (
	ErrMissingDelimiter  = errors.New("websocket: could not find delimiter '://'")
	ErrSecureUnsupported = errors.New("websocket: secure websockets are not supported")
	ErrBadScheme         = errors.New("websocket: bad scheme, url must begin with ws:// or wss://")
	ErrEmptyHost         = errors.New("websocket: empty host")
	ErrBadHost           = errors.New("websocket: bad host")
	ErrBadPort           = errors.New("websocket: could not parse port")
	ErrUnavailable       = errors.New("websocket: transport unavailable")
	ErrConnecting        = errors.New("websocket: cannot send data on a connecting websocket")
	ErrDataAfterClose    = errors.New("websocket: received data on a closed connection")
	ErrBadCharset        = errors.New("websocket: unknown charset")
	ErrBadInterval       = errors.New("websocket: negative callback interval")
)
