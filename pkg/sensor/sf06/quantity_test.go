package sf06

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSignedQuantity(t *testing.T) {
	testCases := []struct {
		name  string
		data  []byte
		value int64
	}{
		{"positive", []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x83, 0xb4}, 164788},
		{"negative", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x30}, -208},
		{"zero", make([]byte, 8), 0},
		{"minus one", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, -1},
		{"max", []byte{0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 1<<63 - 1},
		{"min", []byte{0x80, 0, 0, 0, 0, 0, 0, 0}, -1 << 63},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseSignedQuantity(tc.data)
			require.NoError(t, err)
			require.Equal(t, tc.value, v)
		})
	}
}

func TestParseSignedQuantityLength(t *testing.T) {
	for _, n := range []int{0, 4, 7, 9} {
		_, err := ParseSignedQuantity(make([]byte, n))
		require.ErrorIs(t, err, ErrUnexpectedLength)
	}
}

func TestParseSignedInteger(t *testing.T) {
	testCases := []struct {
		name  string
		data  []byte
		value int64
	}{
		{"one byte", []byte{0x01}, 1},
		{"one byte negative", []byte{0x80}, -128},
		{"two bytes negative", []byte{0xff, 0x30}, -208},
		{"two bytes positive", []byte{0x7f, 0x30}, 0x7f30},
		{"three bytes", []byte{0x02, 0x83, 0xb4}, 164788},
		{"full width", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x30}, -208},
		{"min", []byte{0x80, 0, 0, 0, 0, 0, 0, 0}, -1 << 63},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseSignedInteger(tc.data)
			require.NoError(t, err)
			require.Equal(t, tc.value, v)
		})
	}
}

func TestParseSignedIntegerLength(t *testing.T) {
	for _, n := range []int{0, 9} {
		_, err := ParseSignedInteger(make([]byte, n))
		require.ErrorIs(t, err, ErrUnexpectedLength)
	}
}

func TestParseString(t *testing.T) {
	require.Equal(t, "SCC1", parseString([]byte("SCC1\x00\x00")))
	require.Equal(t, "SLF3S", parseString([]byte("SLF3S")))
	require.Equal(t, "", parseString(nil))
}
