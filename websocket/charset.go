package websocket

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Charset selects how the bytes of a received frame become a string.
type Charset int

const (
	// CharsetUTF8 keeps the received bytes as they are, so text sent as
	// UTF-8 is read back unchanged.
	CharsetUTF8 Charset = iota

	// CharsetLatin1 maps every byte to the character with the same code
	// point, the way legacy script clients read frames.
	CharsetLatin1
)

// ParseCharset parses a charset name. The empty string selects CharsetUTF8.
func ParseCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return CharsetUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return CharsetLatin1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadCharset, name)
	}
}

func (c Charset) String() string {
	switch c {
	case CharsetUTF8:
		return "utf-8"
	case CharsetLatin1:
		return "iso-8859-1"
	default:
		return "charset(" + fmt.Sprint(int(c)) + ")"
	}
}

func (c Charset) decode(p []byte) string {
	if c == CharsetLatin1 {
		// Every byte has a Latin-1 mapping, so decoding cannot fail.
		s, _ := charmap.ISO8859_1.NewDecoder().Bytes(p)
		return string(s)
	}
	return string(p)
}

// toUTF8 makes s safe to put on the wire: invalid UTF-8 sequences are
// replaced by U+FFFD. Valid UTF-8 never contains the 0xFF frame end byte.
func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	// The UTF-8 encoder replaces ill-formed input and never fails.
	out, _ := unicode.UTF8.NewEncoder().String(s)
	return out
}
