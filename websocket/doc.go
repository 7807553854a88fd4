// Package websocket implements a client for the early WebSocket protocol
// (draft-hixie-76 style) on top of a raw byte-stream transport.
//
// This package provides:
//   - URL parsing for ws:// URLs via ParseURL
//   - The opening handshake request via BuildHandshake
//   - 0x00/0xFF delimited text framing via EncodeFrame and Decoder
//   - A callback driven WebSocket with Connecting, Open and Closed states
//   - Optional batched delivery of received messages
//   - YAML configuration via LoadConfig
//
// Client Example:
//
//	ws, err := websocket.Dial("ws://localhost:8080/chat", []string{"chat"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ws.Close()
//
//	ws.OnOpen(func() {
//	    ws.Send("hello")
//	})
//	ws.OnMessage(func(ev websocket.MessageEvent) {
//	    fmt.Println(ev.Origin(), ev.Data())
//	})
//
// Lifecycle:
//
// A WebSocket starts in the Connecting state and sends its handshake as soon
// as the transport has been opened. The first chunk of data received while
// Connecting is taken as the server's handshake response and moves the
// connection to Open. The response is not validated, and any frames that
// arrive in the same chunk as the response are discarded. Closed is
// terminal.
//
// Sending while Connecting returns ErrConnecting. Sending while Closed does
// not fail: the payload is kept in the outbound buffer and accounted in
// BufferedAmount, and Send reports false. Buffered payloads are never sent.
//
// Concurrency:
//
// Transport events and batched deliveries are run one at a time on an event
// loop (see package eventloop), so callbacks never run concurrently with
// each other. Send, Close and the accessors are safe to call from any
// goroutine, including from inside callbacks. Close moves to Closed at once;
// the remaining deliveries and OnClose then run as a task on the event loop,
// after the callback in progress. A WebSocket dialed without a loop runs its
// events inline on the goroutine that raises them.
//
// Batching:
//
// With a zero callback interval every decoded message is passed to OnMessage
// as soon as it is decoded. With a positive interval messages are queued and
// delivered together, in arrival order, once per interval.
//
// Not supported: secure (wss) connections, cookies and RFC 6455 framing.
package websocket
