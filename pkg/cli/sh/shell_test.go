package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/shdlc.go/pkg/sensor/sf06"
)

func TestFormatResult(t *testing.T) {
	testCases := []struct {
		name   string
		result interface{}
		text   string
		json   string
	}{
		{"none", nil, "OK", `{"result":null}`},
		{"bytes", []byte{0x01, 0x7e}, "01 7e", `{"result":"017e"}`},
		{"quantity", int64(-208), "-208", `{"result":-208}`},
		{"string", "SCC1", "SCC1", `{"result":"SCC1"}`},
		{"scale factor", sf06.ScaleFactor{Factor: 500, Unit: 2117}, "{500 2117}", `{"result":{"factor":500,"unit":2117}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := FormatResult(tc.result, false)
			require.NoError(t, err)
			require.Equal(t, tc.text, out)
			out, err = FormatResult(tc.result, true)
			require.NoError(t, err)
			require.JSONEq(t, tc.json, out)
		})
	}
}

func TestParseByte(t *testing.T) {
	for str, val := range map[string]byte{"56": 56, "0x38": 0x38, "0xff": 0xff} {
		b, err := ParseByte(str)
		require.NoError(t, err)
		require.Equal(t, val, b)
	}
	for _, str := range []string{"256", "x", "-1"} {
		_, err := ParseByte(str)
		require.Error(t, err)
	}
}

func TestParseHexData(t *testing.T) {
	data, err := ParseHexData("00fa", "36:08")
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0xfa, 0x36, 0x08}, data)

	data, err = ParseHexData()
	require.NoError(t, err)
	require.Empty(t, data)

	_, err = ParseHexData("0")
	require.Error(t, err)
}
