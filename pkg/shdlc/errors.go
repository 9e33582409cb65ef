package shdlc

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge indicates the request data doesn't fit in a frame.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrMalformedFrame indicates a structural violation in a received frame.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrChecksumMismatch indicates the checksum of a received frame is wrong.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrTimeout indicates no valid response arrived before the deadline.
	ErrTimeout = errors.New("response timeout")
	// ErrBusy indicates another transaction is still in flight.
	ErrBusy = errors.New("transaction in progress")
	// ErrClosed indicates the connection stopped receiving.
	ErrClosed = errors.New("connection closed")
)

// Device error codes reported in the data of an error response.
const (
	ErrCodeWrongDataSize    byte = 0x01
	ErrCodeUnknownCommand   byte = 0x02
	ErrCodeNoAccessRights   byte = 0x03
	ErrCodeInvalidParameter byte = 0x04
	ErrCodeWrongChecksum    byte = 0x05
	ErrCodeSensorBusy       byte = 0x20
	ErrCodeNoAckFromSensor  byte = 0x21
	ErrCodeI2CCRCFalse      byte = 0x22
	ErrCodeSensorTimeout    byte = 0x23
	ErrCodeNoMeasurement    byte = 0x24
)

var errCodeNames = map[byte]string{
	ErrCodeWrongDataSize:    "wrong data size",
	ErrCodeUnknownCommand:   "unknown command",
	ErrCodeNoAccessRights:   "no access rights for command",
	ErrCodeInvalidParameter: "invalid parameter",
	ErrCodeWrongChecksum:    "wrong checksum",
	ErrCodeSensorBusy:       "sensor busy",
	ErrCodeNoAckFromSensor:  "no ack from sensor",
	ErrCodeI2CCRCFalse:      "i2c crc false",
	ErrCodeSensorTimeout:    "sensor timeout",
	ErrCodeNoMeasurement:    "no measurement started",
}

// DeviceError is the failure reported by the device.
// The code is opaque to the link, known codes only get a description.
type DeviceError struct {
	Command byte
	Code    byte
}

// Error implements error.
func (e *DeviceError) Error() string {
	name, ok := errCodeNames[e.Code]
	if !ok {
		name = "unknown error"
	}
	return fmt.Sprintf("device error on command 0x%02x: %s (0x%02x)", e.Command, name, e.Code)
}

// CommandMismatchError indicates the response answers another command.
type CommandMismatchError struct {
	Expected byte
	Actual   byte
}

// Error implements error.
func (e *CommandMismatchError) Error() string {
	return fmt.Sprintf("command mismatch: sent 0x%02x, response for 0x%02x", e.Expected, e.Actual)
}

// IsDeviceError returns the DeviceError wrapped in err, if any.
func IsDeviceError(err error) (*DeviceError, bool) {
	var de *DeviceError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
