package sf06

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// QuantitySize is the size of a signed quantity in response data.
const QuantitySize = 8

// ErrUnexpectedLength indicates the response data has the wrong size.
var ErrUnexpectedLength = errors.New("unexpected response length")

// ParseSignedQuantity decodes a 64-bit big-endian two's complement integer.
func ParseSignedQuantity(data []byte) (int64, error) {
	if len(data) != QuantitySize {
		return 0, fmt.Errorf("%w: %d bytes, expect %d", ErrUnexpectedLength, len(data), QuantitySize)
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

// ParseSignedInteger decodes a big-endian two's complement integer of
// 1 to 8 bytes, sign-extended to int64.
func ParseSignedInteger(data []byte) (int64, error) {
	if len(data) == 0 || len(data) > QuantitySize {
		return 0, fmt.Errorf("%w: %d bytes, expect 1 to %d", ErrUnexpectedLength, len(data), QuantitySize)
	}
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	shift := uint(64 - 8*len(data))
	return int64(v<<shift) >> shift, nil
}

// parseString decodes a NUL terminated ASCII string.
func parseString(data []byte) string {
	if n := bytes.IndexByte(data, 0); n >= 0 {
		data = data[:n]
	}
	return string(data)
}
