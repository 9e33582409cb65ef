package shdlc

import (
	"context"
	"fmt"
	"time"
)

// Executor executes commands.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (interface{}, error)
}

// ExecuteFunc is func type of Executor.
type ExecuteFunc func(ctx context.Context, cmd Command) (interface{}, error)

// Execute implements Executor.
func (f ExecuteFunc) Execute(ctx context.Context, cmd Command) (interface{}, error) {
	return f(ctx, cmd)
}

// Device is a slave device on a Conn.
type Device struct {
	Conn    *Conn
	Address byte
	// Timeout applies to commands without their own, DefaultTimeout if 0.
	Timeout time.Duration
}

// NewDevice creates a Device with the slave address on conn.
func NewDevice(conn *Conn, addr byte) *Device {
	return &Device{Conn: conn, Address: addr}
}

// Execute implements Executor.
// It sends cmd, waits for the response within the command's timeout and
// returns the interpreted result. Nothing is retried.
func (d *Device) Execute(ctx context.Context, cmd Command) (interface{}, error) {
	frame, err := d.Conn.transact(ctx, d.Address, cmd.ID(), cmd.Payload(), timeoutOf(cmd, d.Timeout))
	if err != nil {
		return nil, err
	}
	result, err := cmd.Interpret(frame.Data)
	if err != nil {
		return nil, fmt.Errorf("command 0x%02x response: %w", cmd.ID(), err)
	}
	return result, nil
}
