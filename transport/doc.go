// Package transport provides the raw byte-stream capability the legacy
// WebSocket client is built on.
//
// A Transport opens a connection to a host and port and reports everything
// that happens on it to a Handler: received bytes, errors, a local close and
// a remote disconnect. Conn.Send is fire-and-forget: bytes are queued and
// written in order by a background writer, including bytes sent before the
// connection has been established.
//
// Handler calls are funnelled through a Dispatcher. Passing an event loop
// (see package eventloop) as the Dispatcher guarantees that one handler call
// runs to completion before the next begins.
//
// TCP Example:
//
//	t := &transport.TCP{
//	    Options:    transport.Options{KeepAlive: true, KeepAliveTimeout: 30 * time.Second},
//	    Dispatcher: loop,
//	}
//
//	conn, err := t.Open("example.com", 80, handler)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	_ = conn.Send([]byte("hello"))
//
// Socket Options:
//
// Options mirror the classic plugin socket settings: ipv6, donotroute,
// keepalive, nodelay and keepalivetimeout. ParseOptions accepts them as a
// string map with case-insensitive keys. On Linux keep-alive probing and
// SO_DONTROUTE are configured directly on the socket.
package transport
