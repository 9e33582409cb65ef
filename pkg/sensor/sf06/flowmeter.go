package sf06

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

// DefaultRebootDelay is the time the device needs after DeviceReset.
const DefaultRebootDelay = 100 * time.Millisecond

// FlowMeter provides typed access to an SF06 sensor.
type FlowMeter struct {
	Executor    shdlc.Executor
	SensorType  byte
	RebootDelay time.Duration
}

// NewFlowMeter creates a FlowMeter with the default sensor type.
func NewFlowMeter(executor shdlc.Executor) *FlowMeter {
	return &FlowMeter{
		Executor:    executor,
		SensorType:  SensorTypeSLF3x,
		RebootDelay: DefaultRebootDelay,
	}
}

// Init resets the device and selects the sensor type.
func (m *FlowMeter) Init(ctx context.Context) error {
	glog.V(1).Info("device reset")
	if err := m.Reset(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(m.RebootDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	glog.V(1).Infof("set sensor type %d", m.SensorType)
	return m.exec(ctx, SetSensorType{Type: m.SensorType})
}

// Reset restarts the device.
func (m *FlowMeter) Reset(ctx context.Context) error {
	return m.exec(ctx, DeviceReset{})
}

// SetTotalizator enables or disables the totalizator.
func (m *FlowMeter) SetTotalizator(ctx context.Context, enabled bool) error {
	return m.exec(ctx, SetTotalizatorStatus{Enabled: enabled})
}

// ResetTotalizator clears the totalizator.
func (m *FlowMeter) ResetTotalizator(ctx context.Context) error {
	return m.exec(ctx, ResetTotalizator{})
}

// Start starts continuous measurement with interval in milliseconds.
func (m *FlowMeter) Start(ctx context.Context, interval uint16) error {
	return m.exec(ctx, StartContinuousMeasurement{Interval: interval})
}

// Stop stops continuous measurement.
func (m *FlowMeter) Stop(ctx context.Context) error {
	return m.exec(ctx, StopContinuousMeasurement{})
}

// LastMeasurement returns the last sample in ticks.
func (m *FlowMeter) LastMeasurement(ctx context.Context) (int64, error) {
	return m.quantity(ctx, GetLastMeasurement{})
}

// Totalizator returns the totalizator value in ticks.
func (m *FlowMeter) Totalizator(ctx context.Context) (int64, error) {
	return m.quantity(ctx, GetTotalizatorValue{})
}

// ScaleFactor reads the scale factor of the sensor.
func (m *FlowMeter) ScaleFactor(ctx context.Context) (ScaleFactor, error) {
	r, err := m.Executor.Execute(ctx, GetScaleFactor{})
	if err != nil {
		return ScaleFactor{}, err
	}
	return r.(ScaleFactor), nil
}

// Version reads the device versions.
func (m *FlowMeter) Version(ctx context.Context) (Version, error) {
	r, err := m.Executor.Execute(ctx, GetVersion{})
	if err != nil {
		return Version{}, err
	}
	return r.(Version), nil
}

// ProductName reads the product name of the device.
func (m *FlowMeter) ProductName(ctx context.Context) (string, error) {
	return m.str(ctx, GetDeviceInfo{Info: InfoProductName})
}

// SerialNumber reads the serial number of the device.
func (m *FlowMeter) SerialNumber(ctx context.Context) (string, error) {
	return m.str(ctx, GetDeviceInfo{Info: InfoSerialNumber})
}

// SensorPartName reads the part name of the attached sensor.
func (m *FlowMeter) SensorPartName(ctx context.Context) (string, error) {
	return m.str(ctx, GetSensorPartName{})
}

// StartRecordingVolume enables and clears the totalizator, then starts
// continuous measurement.
func (m *FlowMeter) StartRecordingVolume(ctx context.Context, interval uint16) error {
	if err := m.SetTotalizator(ctx, true); err != nil {
		return fmt.Errorf("enable totalizator: %w", err)
	}
	if err := m.ResetTotalizator(ctx); err != nil {
		return fmt.Errorf("reset totalizator: %w", err)
	}
	if err := m.Start(ctx, interval); err != nil {
		return fmt.Errorf("start measurement: %w", err)
	}
	glog.V(1).Infof("recording volume every %dms", interval)
	return nil
}

// StopRecordingVolume stops measurement and returns the totalizator
// value in ticks.
func (m *FlowMeter) StopRecordingVolume(ctx context.Context) (int64, error) {
	if err := m.Stop(ctx); err != nil {
		return 0, fmt.Errorf("stop measurement: %w", err)
	}
	ticks, err := m.Totalizator(ctx)
	if err != nil {
		return 0, fmt.Errorf("read totalizator: %w", err)
	}
	glog.V(1).Infof("recorded %d ticks", ticks)
	return ticks, nil
}

func (m *FlowMeter) exec(ctx context.Context, cmd shdlc.Command) error {
	_, err := m.Executor.Execute(ctx, cmd)
	return err
}

func (m *FlowMeter) quantity(ctx context.Context, cmd shdlc.Command) (int64, error) {
	r, err := m.Executor.Execute(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return r.(int64), nil
}

func (m *FlowMeter) str(ctx context.Context, cmd shdlc.Command) (string, error) {
	r, err := m.Executor.Execute(ctx, cmd)
	if err != nil {
		return "", err
	}
	return r.(string), nil
}
