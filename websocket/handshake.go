package websocket

import (
	"bytes"
	"fmt"
	"strings"
)

// Fixed key material of the opening handshake. The server's answer to the
// keys is never checked, so they do not need to be random.
const (
	handshakeKey1 = "P388 O503D& ul7{K%gX (%715"
	handshakeKey2 = "1N?|kUT0o r3o4I97 N5-S 3O31"
	handshakeKey3 = "bcdefghi"

	defaultOrigin = "null"
)

// BuildHandshake returns the opening handshake for ep. The
// Sec-WebSocket-Protocol header is only added when protocols is non-empty;
// the names are joined with ",".
func BuildHandshake(ep Endpoint, origin string, protocols []string) []byte {
	var b bytes.Buffer

	writeLine := func(s string) {
		b.WriteString(toUTF8(s))
		b.WriteString("\r\n")
	}

	writeLine("GET " + ep.Resource + " HTTP/1.1")
	writeLine("Upgrade: WebSocket")
	writeLine("Connection: Upgrade")
	writeLine("Host: " + strings.ToLower(ep.hostHeader()))
	writeLine("Origin: " + origin)

	if len(protocols) > 0 {
		writeLine("Sec-WebSocket-Protocol: " + strings.Join(protocols, ","))
	}

	writeLine("Sec-WebSocket-Key1: " + handshakeKey1)
	writeLine("Sec-WebSocket-Key2: " + handshakeKey2)
	writeLine("")

	b.WriteString(handshakeKey3)

	return b.Bytes()
}

// ProtocolList normalises the protocols argument of Dial. A []string is used
// as is, a non-empty string or any other value becomes a single protocol,
// and nil or "" means no protocols.
func ProtocolList(v any) []string {
	switch p := v.(type) {
	case nil:
		return nil
	case []string:
		if len(p) == 0 {
			return nil
		}
		return append([]string(nil), p...)
	case []any:
		if len(p) == 0 {
			return nil
		}
		out := make([]string, len(p))
		for i, e := range p {
			out[i] = stringify(e)
		}
		return out
	case string:
		if p == "" {
			return nil
		}
		return []string{p}
	default:
		return []string{stringify(p)}
	}
}

// stringify converts a payload to the text that is sent.
func stringify(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case []byte:
		return string(d)
	case fmt.Stringer:
		return d.String()
	default:
		return fmt.Sprint(d)
	}
}
