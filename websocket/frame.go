package websocket

import "bytes"

// Frame delimiters. A text frame is 0x00, the UTF-8 payload, then 0xFF.
const (
	frameStart byte = 0x00
	frameEnd   byte = 0xFF
)

// EncodeFrame wraps text in a single frame. Invalid UTF-8 in text is
// replaced so that the payload cannot contain the end marker.
func EncodeFrame(text string) []byte {
	payload := toUTF8(text)

	b := make([]byte, 0, len(payload)+2)
	b = append(b, frameStart)
	b = append(b, payload...)
	b = append(b, frameEnd)

	return b
}

// Decoder turns a byte stream delivered in arbitrary chunks back into
// messages. The zero value is ready to use and decodes with CharsetUTF8.
type Decoder struct {
	Charset Charset

	// buf is empty or holds an unfinished frame, start marker included.
	buf []byte
}

// Decode appends chunk to the unfinished frame kept from earlier calls and
// returns every message completed by it, in order.
//
// When chunk begins with a start marker while a frame is still unfinished,
// the unfinished frame's content is returned as a message of its own and a
// new frame begins. Bytes outside of frames are skipped.
func (d *Decoder) Decode(chunk []byte) []string {
	var msgs []string

	if len(d.buf) > 0 && len(chunk) > 0 && chunk[0] == frameStart {
		msgs = append(msgs, d.Charset.decode(d.buf[1:]))
		d.buf = d.buf[:0]
	}

	d.buf = append(d.buf, chunk...)

	var (
		inFrame bool
		start   int // index of the current frame's start marker
	)

	for i, c := range d.buf {
		switch {
		case inFrame && c == frameEnd:
			msgs = append(msgs, d.Charset.decode(d.buf[start+1:i]))
			inFrame = false
		case !inFrame && c == frameStart:
			inFrame = true
			start = i
		}
	}

	if inFrame {
		d.buf = append(d.buf[:0], d.buf[start:]...)
	} else {
		d.buf = d.buf[:0]
	}

	return msgs
}

// Buffered returns the number of bytes held for an unfinished frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Pending returns a copy of the unfinished frame's payload so far.
func (d *Decoder) Pending() []byte {
	if len(d.buf) == 0 {
		return nil
	}
	return bytes.Clone(d.buf[1:])
}

// Reset drops any unfinished frame.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}
