package sf06

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Command IDs.
const (
	CmdSetSensorType        byte = 0x24
	CmdStartContinuous      byte = 0x33
	CmdStopContinuous       byte = 0x34
	CmdGetLastMeasurement   byte = 0x35
	CmdSetTotalizatorStatus byte = 0x37
	CmdGetTotalizatorValue  byte = 0x38
	CmdResetTotalizator     byte = 0x39
	CmdGetSensorPartName    byte = 0x50
	CmdGetScaleFactor       byte = 0x53
	CmdDeviceInfo           byte = 0xd0
	CmdGetVersion           byte = 0xd1
	CmdDeviceReset          byte = 0xd3
)

// Sub-commands of CmdDeviceInfo.
const (
	InfoProductName  byte = 0x01
	InfoArticleCode  byte = 0x02
	InfoSerialNumber byte = 0x03
)

// SensorTypeSLF3x is the sensor type of the SLF3x series.
const SensorTypeSLF3x byte = 0x03

// trailing bytes of StartContinuousMeasurement.
const (
	defaultHeaterMode  byte = 0x36
	defaultCalibration byte = 0x08
)

// ResetTimeout is the response timeout of DeviceReset.
const ResetTimeout = 250 * time.Millisecond

// DeviceReset restarts the device.
type DeviceReset struct{}

// ID implements shdlc.Command.
func (DeviceReset) ID() byte { return CmdDeviceReset }

// Payload implements shdlc.Command.
func (DeviceReset) Payload() []byte { return nil }

// Timeout implements shdlc.Command.
func (DeviceReset) Timeout() time.Duration { return ResetTimeout }

// Interpret implements shdlc.Command.
func (DeviceReset) Interpret([]byte) (interface{}, error) { return nil, nil }

// Idempotent implements shdlc.Idempotent.
func (DeviceReset) Idempotent() bool { return true }

// SetSensorType selects the sensor attached to the cable.
type SetSensorType struct {
	Type byte
}

// ID implements shdlc.Command.
func (SetSensorType) ID() byte { return CmdSetSensorType }

// Payload implements shdlc.Command.
func (c SetSensorType) Payload() []byte { return []byte{c.Type} }

// Timeout implements shdlc.Command.
func (SetSensorType) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (SetSensorType) Interpret([]byte) (interface{}, error) { return nil, nil }

// Idempotent implements shdlc.Idempotent.
func (SetSensorType) Idempotent() bool { return true }

// StartContinuousMeasurement starts sampling every Interval milliseconds.
type StartContinuousMeasurement struct {
	Interval uint16
}

// ID implements shdlc.Command.
func (StartContinuousMeasurement) ID() byte { return CmdStartContinuous }

// Payload implements shdlc.Command.
func (c StartContinuousMeasurement) Payload() []byte {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data, c.Interval)
	data[2], data[3] = defaultHeaterMode, defaultCalibration
	return data
}

// Timeout implements shdlc.Command.
func (StartContinuousMeasurement) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (StartContinuousMeasurement) Interpret([]byte) (interface{}, error) { return nil, nil }

// Idempotent implements shdlc.Idempotent.
func (StartContinuousMeasurement) Idempotent() bool { return true }

// StopContinuousMeasurement stops sampling.
type StopContinuousMeasurement struct{}

// ID implements shdlc.Command.
func (StopContinuousMeasurement) ID() byte { return CmdStopContinuous }

// Payload implements shdlc.Command.
func (StopContinuousMeasurement) Payload() []byte { return nil }

// Timeout implements shdlc.Command.
func (StopContinuousMeasurement) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (StopContinuousMeasurement) Interpret([]byte) (interface{}, error) { return nil, nil }

// Idempotent implements shdlc.Idempotent.
func (StopContinuousMeasurement) Idempotent() bool { return true }

// GetLastMeasurement reads the most recent sample in ticks.
// The result is int64, the device may send fewer than 8 bytes.
type GetLastMeasurement struct{}

// ID implements shdlc.Command.
func (GetLastMeasurement) ID() byte { return CmdGetLastMeasurement }

// Payload implements shdlc.Command.
func (GetLastMeasurement) Payload() []byte { return nil }

// Timeout implements shdlc.Command.
func (GetLastMeasurement) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (GetLastMeasurement) Interpret(data []byte) (interface{}, error) {
	return ParseSignedInteger(data)
}

// Idempotent implements shdlc.Idempotent.
func (GetLastMeasurement) Idempotent() bool { return true }

// SetTotalizatorStatus enables or disables summing up samples.
type SetTotalizatorStatus struct {
	Enabled bool
}

// ID implements shdlc.Command.
func (SetTotalizatorStatus) ID() byte { return CmdSetTotalizatorStatus }

// Payload implements shdlc.Command.
func (c SetTotalizatorStatus) Payload() []byte {
	if c.Enabled {
		return []byte{1}
	}
	return []byte{0}
}

// Timeout implements shdlc.Command.
func (SetTotalizatorStatus) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (SetTotalizatorStatus) Interpret([]byte) (interface{}, error) { return nil, nil }

// Idempotent implements shdlc.Idempotent.
func (SetTotalizatorStatus) Idempotent() bool { return true }

// GetTotalizatorValue reads the sum of samples in ticks.
// The result is int64.
type GetTotalizatorValue struct{}

// ID implements shdlc.Command.
func (GetTotalizatorValue) ID() byte { return CmdGetTotalizatorValue }

// Payload implements shdlc.Command.
func (GetTotalizatorValue) Payload() []byte { return nil }

// Timeout implements shdlc.Command.
func (GetTotalizatorValue) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (GetTotalizatorValue) Interpret(data []byte) (interface{}, error) {
	return ParseSignedQuantity(data)
}

// Idempotent implements shdlc.Idempotent.
func (GetTotalizatorValue) Idempotent() bool { return true }

// ResetTotalizator clears the sum of samples.
// It is not idempotent: a retry after a lost response drops the samples
// summed in between.
type ResetTotalizator struct{}

// ID implements shdlc.Command.
func (ResetTotalizator) ID() byte { return CmdResetTotalizator }

// Payload implements shdlc.Command.
func (ResetTotalizator) Payload() []byte { return nil }

// Timeout implements shdlc.Command.
func (ResetTotalizator) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (ResetTotalizator) Interpret([]byte) (interface{}, error) { return nil, nil }

// GetSensorPartName reads the part name of the attached sensor.
// The result is string.
type GetSensorPartName struct{}

// ID implements shdlc.Command.
func (GetSensorPartName) ID() byte { return CmdGetSensorPartName }

// Payload implements shdlc.Command.
func (GetSensorPartName) Payload() []byte { return nil }

// Timeout implements shdlc.Command.
func (GetSensorPartName) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (GetSensorPartName) Interpret(data []byte) (interface{}, error) {
	return parseString(data), nil
}

// Idempotent implements shdlc.Idempotent.
func (GetSensorPartName) Idempotent() bool { return true }

// ScaleFactor is the conversion information of the attached sensor.
type ScaleFactor struct {
	Factor uint16 `json:"factor"`
	Unit   uint16 `json:"unit"`
}

// GetScaleFactor reads the scale factor and unit of the attached sensor.
// The result is ScaleFactor.
type GetScaleFactor struct{}

// ID implements shdlc.Command.
func (GetScaleFactor) ID() byte { return CmdGetScaleFactor }

// Payload implements shdlc.Command.
func (GetScaleFactor) Payload() []byte { return []byte{0, 0} }

// Timeout implements shdlc.Command.
func (GetScaleFactor) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (GetScaleFactor) Interpret(data []byte) (interface{}, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("%w: %d bytes, expect 4", ErrUnexpectedLength, len(data))
	}
	return ScaleFactor{
		Factor: binary.BigEndian.Uint16(data),
		Unit:   binary.BigEndian.Uint16(data[2:]),
	}, nil
}

// Idempotent implements shdlc.Idempotent.
func (GetScaleFactor) Idempotent() bool { return true }

// GetDeviceInfo reads one of the identification strings.
// The result is string.
type GetDeviceInfo struct {
	Info byte
}

// ID implements shdlc.Command.
func (GetDeviceInfo) ID() byte { return CmdDeviceInfo }

// Payload implements shdlc.Command.
func (c GetDeviceInfo) Payload() []byte { return []byte{c.Info} }

// Timeout implements shdlc.Command.
func (GetDeviceInfo) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (GetDeviceInfo) Interpret(data []byte) (interface{}, error) {
	return parseString(data), nil
}

// Idempotent implements shdlc.Idempotent.
func (GetDeviceInfo) Idempotent() bool { return true }

// Version contains firmware, hardware and protocol versions.
type Version struct {
	FirmwareMajor byte `json:"firmware-major"`
	FirmwareMinor byte `json:"firmware-minor"`
	Debug         bool `json:"debug"`
	HardwareMajor byte `json:"hardware-major"`
	HardwareMinor byte `json:"hardware-minor"`
	ProtocolMajor byte `json:"protocol-major"`
	ProtocolMinor byte `json:"protocol-minor"`
}

// String implements fmt.Stringer.
func (v Version) String() string {
	s := fmt.Sprintf("firmware %d.%d hardware %d.%d protocol %d.%d",
		v.FirmwareMajor, v.FirmwareMinor,
		v.HardwareMajor, v.HardwareMinor,
		v.ProtocolMajor, v.ProtocolMinor)
	if v.Debug {
		s += " (debug)"
	}
	return s
}

// GetVersion reads the versions of the device.
// The result is Version.
type GetVersion struct{}

// ID implements shdlc.Command.
func (GetVersion) ID() byte { return CmdGetVersion }

// Payload implements shdlc.Command.
func (GetVersion) Payload() []byte { return nil }

// Timeout implements shdlc.Command.
func (GetVersion) Timeout() time.Duration { return 0 }

// Interpret implements shdlc.Command.
func (GetVersion) Interpret(data []byte) (interface{}, error) {
	if len(data) != 7 {
		return nil, fmt.Errorf("%w: %d bytes, expect 7", ErrUnexpectedLength, len(data))
	}
	return Version{
		FirmwareMajor: data[0],
		FirmwareMinor: data[1],
		Debug:         data[2] != 0,
		HardwareMajor: data[3],
		HardwareMinor: data[4],
		ProtocolMajor: data[5],
		ProtocolMinor: data[6],
	}, nil
}

// Idempotent implements shdlc.Idempotent.
func (GetVersion) Idempotent() bool { return true }
