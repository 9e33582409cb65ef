package shdlc

import (
	"fmt"
	"io"
)

const (
	// MaxDataLen is the maximum number of data bytes in a frame.
	MaxDataLen = 0xff

	// ErrorFlag is set in the command byte of a response by a device
	// which failed to execute the command.
	ErrorFlag byte = 0x80

	// address, command, length and checksum.
	minBodyLen = 4
	// delimiters plus a fully escaped body.
	maxWireLen = 2 + 2*(minBodyLen+MaxDataLen)
)

// Frame contains the fields of a decoded frame.
type Frame struct {
	Address  byte
	Command  byte
	Data     []byte
	Checksum byte
}

// IsError indicates the device flagged an execution error.
func (f *Frame) IsError() bool {
	return f.Command&ErrorFlag != 0
}

// CommandID returns the command byte without the error flag.
func (f *Frame) CommandID() byte {
	return f.Command &^ ErrorFlag
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() ([]byte, error) {
	return Encode(f.Address, f.Command, f.Data)
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Encode builds the wire bytes of a frame:
//
//	7e [addr cmd len data... chk] 7e
//
// with the bracketed body escaped.
func Encode(addr, cmd byte, data []byte) ([]byte, error) {
	if len(data) > MaxDataLen {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(data), MaxDataLen)
	}
	body := make([]byte, 0, len(data)+minBodyLen)
	body = append(body, addr, cmd, byte(len(data)))
	body = append(body, data...)
	body = append(body, Checksum(addr, cmd, data))

	escaped := Escape(body)
	wire := make([]byte, 0, len(escaped)+2)
	wire = append(wire, FrameDelimiter)
	wire = append(wire, escaped...)
	return append(wire, FrameDelimiter), nil
}

// Decode parses the wire bytes of a single frame.
//
// A frame with the error flag set is returned together with a
// *DeviceError carrying the first data byte as the code; its checksum is
// not evaluated. Callers must check the error before using Data.
func Decode(wire []byte) (*Frame, error) {
	if len(wire) < 2 || wire[0] != FrameDelimiter || wire[len(wire)-1] != FrameDelimiter {
		return nil, fmt.Errorf("%w: missing delimiters", ErrMalformedFrame)
	}
	body, err := Unescape(wire[1 : len(wire)-1])
	if err != nil {
		return nil, err
	}
	if len(body) < minBodyLen {
		return nil, fmt.Errorf("%w: %d bytes, min %d", ErrMalformedFrame, len(body), minBodyLen)
	}
	f := &Frame{
		Address:  body[0],
		Command:  body[1],
		Data:     body[3 : len(body)-1],
		Checksum: body[len(body)-1],
	}
	if declared := int(body[2]); declared != len(f.Data) {
		return nil, fmt.Errorf("%w: length %d, got %d data bytes", ErrMalformedFrame, declared, len(f.Data))
	}
	if f.IsError() {
		if len(f.Data) == 0 {
			return nil, fmt.Errorf("%w: error response without code", ErrMalformedFrame)
		}
		return f, &DeviceError{Command: f.CommandID(), Code: f.Data[0]}
	}
	if !VerifyChecksum(f.Address, f.Command, f.Data, f.Checksum) {
		return nil, fmt.Errorf("%w: got 0x%02x, expected 0x%02x",
			ErrChecksumMismatch, f.Checksum, Checksum(f.Address, f.Command, f.Data))
	}
	return f, nil
}
