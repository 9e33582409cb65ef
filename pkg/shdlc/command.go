package shdlc

import "time"

// DefaultTimeout is used when a command doesn't specify a response timeout.
const DefaultTimeout = 1000 * time.Millisecond

// Command is a request understood by a device.
// Implementations are plain values, built per invocation and consumed by
// a single transaction.
type Command interface {
	// ID is the command byte.
	ID() byte
	// Payload encodes the request data, nil for none.
	Payload() []byte
	// Timeout is the maximum time to wait for the response, 0 for the
	// default of the Device.
	Timeout() time.Duration
	// Interpret converts the response data into the result.
	Interpret(data []byte) (interface{}, error)
}

// Idempotent is optionally implemented by commands which can be safely
// sent again after a lost or corrupted response.
type Idempotent interface {
	Idempotent() bool
}

// IsIdempotent checks whether cmd declares itself safe to repeat.
func IsIdempotent(cmd Command) bool {
	if c, ok := cmd.(Idempotent); ok {
		return c.Idempotent()
	}
	return false
}

// RawCommand sends arbitrary data and returns the response data as is.
type RawCommand struct {
	CommandID       byte
	Data            []byte
	ResponseTimeout time.Duration
	// Repeatable marks the command Idempotent.
	Repeatable bool
}

// ID implements Command.
func (c *RawCommand) ID() byte { return c.CommandID }

// Payload implements Command.
func (c *RawCommand) Payload() []byte { return c.Data }

// Timeout implements Command.
func (c *RawCommand) Timeout() time.Duration { return c.ResponseTimeout }

// Interpret implements Command.
func (c *RawCommand) Interpret(data []byte) (interface{}, error) {
	return append([]byte{}, data...), nil
}

// Idempotent implements Idempotent.
func (c *RawCommand) Idempotent() bool { return c.Repeatable }

func timeoutOf(cmd Command, fallback time.Duration) time.Duration {
	if d := cmd.Timeout(); d > 0 {
		return d
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultTimeout
}
