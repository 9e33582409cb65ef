package shdlc

import "fmt"

const (
	// FrameDelimiter starts and stops every frame.
	FrameDelimiter byte = 0x7e
	// EscapeByte prefixes a stuffed reserved byte.
	EscapeByte byte = 0x7d

	escapeXOR byte = 0x20
)

func isReserved(b byte) bool {
	return b == FrameDelimiter || b == EscapeByte
}

// Escape byte-stuffs the frame body so that neither the delimiter nor
// the escape byte appears in it.
func Escape(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/8)
	for _, c := range b {
		if isReserved(c) {
			out = append(out, EscapeByte, c^escapeXOR)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// Unescape reverses Escape.
// Only the stuffed forms of the reserved bytes are accepted after an
// escape byte, anything else is rejected as ErrMalformedFrame.
func Unescape(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch c {
		case FrameDelimiter:
			return nil, fmt.Errorf("%w: unescaped delimiter at %d", ErrMalformedFrame, i)
		case EscapeByte:
			if i+1 >= len(b) {
				return nil, fmt.Errorf("%w: dangling escape byte", ErrMalformedFrame)
			}
			i++
			orig := b[i] ^ escapeXOR
			if !isReserved(orig) {
				return nil, fmt.Errorf("%w: invalid escape sequence 7d %02x", ErrMalformedFrame, b[i])
			}
			out = append(out, orig)
		default:
			out = append(out, c)
		}
	}
	return out, nil
}
