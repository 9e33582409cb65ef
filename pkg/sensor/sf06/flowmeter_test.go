package sf06

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

// fakeSensor answers each request frame through handler.
type fakeSensor struct {
	handler func(cmd byte, data []byte) (byte, []byte)

	lock     sync.Mutex
	requests []shdlc.Frame

	respCh chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeSensor(handler func(cmd byte, data []byte) (byte, []byte)) *fakeSensor {
	return &fakeSensor{
		handler: handler,
		respCh:  make(chan []byte, 4),
		closed:  make(chan struct{}),
	}
}

func (s *fakeSensor) Write(p []byte) (int, error) {
	f, err := shdlc.Decode(p)
	if err != nil {
		return 0, err
	}
	s.lock.Lock()
	s.requests = append(s.requests, *f)
	s.lock.Unlock()
	cmd, data := s.handler(f.Command, f.Data)
	wire, err := shdlc.Encode(f.Address, cmd, data)
	if err != nil {
		return 0, err
	}
	s.respCh <- wire
	return len(p), nil
}

func (s *fakeSensor) Read(p []byte) (int, error) {
	select {
	case b := <-s.respCh:
		return copy(p, b), nil
	case <-s.closed:
		return 0, io.EOF
	}
}

func (s *fakeSensor) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSensor) commands() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	ids := make([]byte, len(s.requests))
	for n, f := range s.requests {
		ids[n] = f.Command
	}
	return ids
}

func runFlowMeter(t *testing.T, sensor *fakeSensor) *FlowMeter {
	conn := shdlc.NewConn(sensor)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		conn.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		sensor.Close()
		<-done
	})
	m := NewFlowMeter(shdlc.NewDevice(conn, 0))
	m.RebootDelay = time.Millisecond
	return m
}

func echoSensor(cmd byte, data []byte) (byte, []byte) {
	switch cmd {
	case CmdGetTotalizatorValue:
		return cmd, []byte{0, 0, 0, 0, 0, 0x02, 0x83, 0xb4}
	case CmdGetLastMeasurement:
		return cmd, []byte{0xff, 0x30}
	case CmdDeviceInfo:
		return cmd, []byte("SCC1\x00")
	case CmdGetSensorPartName:
		return cmd, []byte("SLF3S\x00")
	case CmdGetScaleFactor:
		return cmd, []byte{0x01, 0xf4, 0x08, 0x45}
	case CmdGetVersion:
		return cmd, []byte{1, 2, 0, 3, 4, 2, 0}
	}
	return cmd, nil
}

func TestFlowMeterInit(t *testing.T) {
	sensor := newFakeSensor(echoSensor)
	m := runFlowMeter(t, sensor)
	require.NoError(t, m.Init(context.Background()))
	require.Equal(t, []byte{CmdDeviceReset, CmdSetSensorType}, sensor.commands())
	require.Equal(t, []byte{SensorTypeSLF3x}, sensor.requests[1].Data)
}

func TestFlowMeterRecordingVolume(t *testing.T) {
	sensor := newFakeSensor(echoSensor)
	m := runFlowMeter(t, sensor)
	ctx := context.Background()
	require.NoError(t, m.StartRecordingVolume(ctx, 20))
	ticks, err := m.StopRecordingVolume(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(164788), ticks)
	require.Equal(t, []byte{
		CmdSetTotalizatorStatus,
		CmdResetTotalizator,
		CmdStartContinuous,
		CmdStopContinuous,
		CmdGetTotalizatorValue,
	}, sensor.commands())
	require.Equal(t, []byte{0x00, 0x14, 0x36, 0x08}, sensor.requests[2].Data)
}

func TestFlowMeterQueries(t *testing.T) {
	m := runFlowMeter(t, newFakeSensor(echoSensor))
	ctx := context.Background()

	last, err := m.LastMeasurement(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(-208), last)

	name, err := m.ProductName(ctx)
	require.NoError(t, err)
	require.Equal(t, "SCC1", name)

	serial, err := m.SerialNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, "SCC1", serial)

	part, err := m.SensorPartName(ctx)
	require.NoError(t, err)
	require.Equal(t, "SLF3S", part)

	sf, err := m.ScaleFactor(ctx)
	require.NoError(t, err)
	require.Equal(t, ScaleFactor{Factor: 500, Unit: 0x0845}, sf)

	ver, err := m.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, byte(1), ver.FirmwareMajor)
}

func TestFlowMeterDeviceError(t *testing.T) {
	sensor := newFakeSensor(func(cmd byte, data []byte) (byte, []byte) {
		if cmd == CmdStopContinuous {
			return cmd | shdlc.ErrorFlag, []byte{shdlc.ErrCodeNoMeasurement}
		}
		return echoSensor(cmd, data)
	})
	m := runFlowMeter(t, sensor)
	_, err := m.StopRecordingVolume(context.Background())
	de, ok := shdlc.IsDeviceError(err)
	require.True(t, ok)
	require.Equal(t, shdlc.ErrCodeNoMeasurement, de.Code)
	require.Contains(t, err.Error(), "stop measurement")
	require.Equal(t, []byte{CmdStopContinuous}, sensor.commands())
}

func TestFlowMeterInitCanceled(t *testing.T) {
	var executed []byte
	m := NewFlowMeter(shdlc.ExecuteFunc(func(ctx context.Context, cmd shdlc.Command) (interface{}, error) {
		executed = append(executed, cmd.ID())
		return nil, nil
	}))
	m.RebootDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Init(ctx), context.Canceled)
	require.Equal(t, []byte{CmdDeviceReset}, executed)
}

func TestFlowMeterExecutorError(t *testing.T) {
	m := NewFlowMeter(shdlc.ExecuteFunc(func(ctx context.Context, cmd shdlc.Command) (interface{}, error) {
		return nil, shdlc.ErrTimeout
	}))
	err := m.StartRecordingVolume(context.Background(), 20)
	require.True(t, errors.Is(err, shdlc.ErrTimeout))
	require.Contains(t, err.Error(), "enable totalizator")
}
