package flowmeter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/shdlc.go/pkg/cli/sh"
	"github.com/robotalks/shdlc.go/pkg/sensor/sf06"
)

// DefaultInterval is the measurement interval in milliseconds.
const DefaultInterval uint16 = 20

func parseInterval(args []string) (uint16, error) {
	if len(args) < 1 {
		return DefaultInterval, nil
	}
	val, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("Invalid INTERVAL: %v", err)
	}
	return uint16(val), nil
}

var (
	// ResetCmd exposes DeviceReset.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sh.DoCommand(c, sf06.DeviceReset{})
		}),
	}

	// InitCmd resets the device and sets the sensor type.
	InitCmd = ishell.Cmd{
		Name: "init",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if err := sh.MeterFrom(c).Init(context.Background()); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, nil)
		}),
	}

	// SensorTypeCmd exposes SetSensorType.
	SensorTypeCmd = ishell.Cmd{
		Name: "sensor-type",
		Help: "TYPE",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sensorType := sf06.SensorTypeSLF3x
			if len(c.Args) > 0 {
				val, err := sh.ParseByte(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid TYPE: %v", err))
					return
				}
				sensorType = val
			}
			sh.DoCommand(c, sf06.SetSensorType{Type: sensorType})
		}),
	}

	// StartCmd exposes StartContinuousMeasurement.
	StartCmd = ishell.Cmd{
		Name: "start",
		Help: "[INTERVAL(ms)]",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			interval, err := parseInterval(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, sf06.StartContinuousMeasurement{Interval: interval})
		}),
	}

	// StopCmd exposes StopContinuousMeasurement.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sh.DoCommand(c, sf06.StopContinuousMeasurement{})
		}),
	}

	// LastCmd exposes GetLastMeasurement.
	LastCmd = ishell.Cmd{
		Name: "last",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sh.DoCommand(c, sf06.GetLastMeasurement{})
		}),
	}

	// TotalizatorCmd exposes SetTotalizatorStatus.
	TotalizatorCmd = ishell.Cmd{
		Name: "totalizator",
		Help: "on|off",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("on|off required"))
				return
			}
			var enabled bool
			switch c.Args[0] {
			case "on":
				enabled = true
			case "off":
			default:
				c.Err(fmt.Errorf("Invalid status: %q", c.Args[0]))
				return
			}
			sh.DoCommand(c, sf06.SetTotalizatorStatus{Enabled: enabled})
		}),
	}

	// TotalCmd exposes GetTotalizatorValue.
	TotalCmd = ishell.Cmd{
		Name: "total",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sh.DoCommand(c, sf06.GetTotalizatorValue{})
		}),
	}

	// TotalResetCmd exposes ResetTotalizator.
	TotalResetCmd = ishell.Cmd{
		Name: "total-reset",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sh.DoCommand(c, sf06.ResetTotalizator{})
		}),
	}

	// ScaleFactorCmd exposes GetScaleFactor.
	ScaleFactorCmd = ishell.Cmd{
		Name: "scale-factor",
		Help: "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			sh.DoCommand(c, sf06.GetScaleFactor{})
		}),
	}

	// InfoCmd prints identification of the device.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			ctx, m := context.Background(), sh.MeterFrom(c)
			info := make(map[string]interface{})
			var err error
			if info["product-name"], err = m.ProductName(ctx); err != nil {
				c.Err(err)
				return
			}
			if info["serial-number"], err = m.SerialNumber(ctx); err != nil {
				c.Err(err)
				return
			}
			if info["sensor-part-name"], err = m.SensorPartName(ctx); err != nil {
				c.Err(err)
				return
			}
			if info["version"], err = m.Version(ctx); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, info)
		}),
	}

	// RecordCmd starts or stops recording volume.
	RecordCmd = ishell.Cmd{
		Name: "record",
		Help: "start [INTERVAL(ms)] | stop",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("start|stop required"))
				return
			}
			ctx, m := context.Background(), sh.MeterFrom(c)
			switch c.Args[0] {
			case "start":
				interval, err := parseInterval(c.Args[1:])
				if err != nil {
					c.Err(err)
					return
				}
				if err := m.StartRecordingVolume(ctx, interval); err != nil {
					c.Err(err)
					return
				}
				sh.Print(c, nil)
			case "stop":
				ticks, err := m.StopRecordingVolume(ctx)
				if err != nil {
					c.Err(err)
					return
				}
				sh.Print(c, ticks)
			default:
				c.Err(fmt.Errorf("Invalid action: %q", c.Args[0]))
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&ResetCmd,
		&InitCmd,
		&SensorTypeCmd,
		&StartCmd,
		&StopCmd,
		&LastCmd,
		&TotalizatorCmd,
		&TotalCmd,
		&TotalResetCmd,
		&ScaleFactorCmd,
		&InfoCmd,
		&RecordCmd,
	)
}
