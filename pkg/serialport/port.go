// Package serialport opens the serial line of an SHDLC device.
package serialport

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// Defaults of the SHDLC serial line.
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 50 * time.Millisecond
)

// Config specifies the serial line.
type Config struct {
	Path        string
	BaudRate    int
	ReadTimeout time.Duration
}

// Mode returns 8N1 serial mode with the baud rate.
func (c *Config) Mode() *serial.Mode {
	baud := c.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the port with a read timeout, so Read returns periodically
// with no data.
func (c *Config) Open() (serial.Port, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("serial port not specified")
	}
	port, err := serial.Open(c.Path, c.Mode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Path, err)
	}
	timeout := c.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", c.Path, err)
	}
	glog.Infof("opened %s at %d baud", c.Path, c.Mode().BaudRate)
	return port, nil
}

// List lists available serial ports.
func List() ([]string, error) {
	return serial.GetPortsList()
}
