// Package env provides common options to set up an SHDLC link from
// environment variables and command line flags.
package env

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	fx "github.com/robotalks/shdlc.go/pkg/framework"
	"github.com/robotalks/shdlc.go/pkg/serialport"
	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

// Environment variables.
const (
	EnvPort        = "SHDLC_PORT"
	EnvBaudRate    = "SHDLC_BAUD"
	EnvAddress     = "SHDLC_ADDRESS"
	EnvTimeout     = "SHDLC_TIMEOUT"
	EnvBrokerURL   = "SHDLC_MQTT_URL"
	EnvBridgeID    = "SHDLC_BRIDGE_ID"
	EnvReadTimeout = "SHDLC_READ_TIMEOUT"
)

// Config provides common options to open a device.
type Config struct {
	Serial serialport.Config

	// Address is the slave address of the device.
	Address uint
	// Timeout is the response timeout of commands without their own.
	Timeout time.Duration

	// BrokerURL specifies the MQTT broker for the bridge.
	// e.g. mqtt://host:port/topic-prefix
	BrokerURL string
	// BridgeID is the ID in bridge topics, machine ID if empty.
	BridgeID string
}

var (
	defaultConfig = Config{
		Serial: serialport.Config{
			BaudRate:    serialport.DefaultBaudRate,
			ReadTimeout: serialport.DefaultReadTimeout,
		},
		Timeout:   shdlc.DefaultTimeout,
		BrokerURL: "mqtt://localhost:1883/",
	}

	envErr error
)

func init() {
	envErr = defaultConfig.LoadEnv(os.Getenv)
}

// LoadEnv overrides config with environment variables read by getenv.
// Malformed values are reported and leave the fields unchanged.
func (c *Config) LoadEnv(getenv func(string) string) error {
	var errs fx.AggregatedError
	if val := getenv(EnvPort); val != "" {
		c.Serial.Path = val
	}
	if val := getenv(EnvBaudRate); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", EnvBaudRate, err))
		} else {
			c.Serial.BaudRate = n
		}
	}
	if val := getenv(EnvAddress); val != "" {
		n, err := strconv.ParseUint(val, 0, 8)
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", EnvAddress, err))
		} else {
			c.Address = uint(n)
		}
	}
	if val := getenv(EnvTimeout); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", EnvTimeout, err))
		} else {
			c.Timeout = d
		}
	}
	if val := getenv(EnvReadTimeout); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", EnvReadTimeout, err))
		} else {
			c.Serial.ReadTimeout = d
		}
	}
	if val := getenv(EnvBrokerURL); val != "" {
		c.BrokerURL = val
	}
	if val := getenv(EnvBridgeID); val != "" {
		c.BridgeID = val
	}
	return errs.Aggregate()
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Serial.Path, "port", defaultConfig.Serial.Path, "Serial port of the device.")
	flag.IntVar(&defaultConfig.Serial.BaudRate, "baud", defaultConfig.Serial.BaudRate, "Baud rate.")
	flag.DurationVar(&defaultConfig.Serial.ReadTimeout, "read-timeout", defaultConfig.Serial.ReadTimeout, "Serial read timeout.")
	flag.UintVar(&defaultConfig.Address, "addr", defaultConfig.Address, "Slave address of the device.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Response timeout of commands without their own.")
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.BridgeID, "bridge-id", defaultConfig.BridgeID, "Bridge ID, machine ID by default.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config, including values from the environment.
func (c *Config) Validate() error {
	var errs fx.AggregatedError
	errs.Add(envErr)
	if c.Address > 0xff {
		errs.Add(fmt.Errorf("invalid slave address %d", c.Address))
	}
	if c.Timeout <= 0 {
		errs.Add(fmt.Errorf("invalid timeout %v", c.Timeout))
	}
	return errs.Aggregate()
}

// SlaveAddress returns Address as a byte.
func (c *Config) SlaveAddress() byte {
	return byte(c.Address)
}

// ID returns BridgeID, or the machine ID if not set.
func (c *Config) ID() (string, error) {
	if c.BridgeID != "" {
		return c.BridgeID, nil
	}
	return MachineID()
}

// NewDevice creates the device on conn with the configured address and
// response timeout.
func (c *Config) NewDevice(conn *shdlc.Conn) *shdlc.Device {
	dev := shdlc.NewDevice(conn, c.SlaveAddress())
	dev.Timeout = c.Timeout
	return dev
}

// OpenConn opens the serial port and creates a Conn on it.
// The caller runs the Conn.
func (c *Config) OpenConn() (*shdlc.Conn, error) {
	port, err := c.Serial.Open()
	if err != nil {
		return nil, err
	}
	conn := shdlc.NewConn(port)
	conn.ReadTimeout = true
	return conn, nil
}
