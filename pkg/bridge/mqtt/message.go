package mqtt

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

// HexBytes is encoded as a hex string in JSON.
type HexBytes []byte

// MarshalJSON implements json.Marshaler.
func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(str)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

// Request asks the bridge to execute a command.
type Request struct {
	// ID is copied into the reply for correlation.
	ID        string   `json:"id,omitempty"`
	Command   byte     `json:"command"`
	Data      HexBytes `json:"data,omitempty"`
	TimeoutMs int      `json:"timeout-ms,omitempty"`
	// Idempotent allows the bridge to retry the command.
	Idempotent bool `json:"idempotent,omitempty"`
}

// RawCommand converts the request into a command.
func (r *Request) RawCommand() *shdlc.RawCommand {
	return &shdlc.RawCommand{
		CommandID:       r.Command,
		Data:            r.Data,
		ResponseTimeout: time.Duration(r.TimeoutMs) * time.Millisecond,
		Repeatable:      r.Idempotent,
	}
}

// Reply is the result of a Request.
type Reply struct {
	ID      string   `json:"id,omitempty"`
	Command byte     `json:"command"`
	Data    HexBytes `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	// ErrorCode is the code of a device error.
	ErrorCode *byte `json:"error-code,omitempty"`
}

// Fail sets the error fields.
func (r *Reply) Fail(err error) *Reply {
	r.Error = err.Error()
	var de *shdlc.DeviceError
	if errors.As(err, &de) {
		code := de.Code
		r.ErrorCode = &code
	}
	return r
}
