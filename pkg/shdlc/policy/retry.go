// Package policy provides Executors layered over shdlc.Device which add
// behavior the link itself doesn't have.
package policy

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

// Retry defaults.
const (
	DefaultMaxErrors  = 2
	DefaultRetryDelay = 100 * time.Millisecond
)

// Retry executes a command again after a transient failure.
// ErrBusy is retried for any command as nothing was sent. Timeouts and
// corrupted responses are only retried for commands which are
// shdlc.Idempotent, the others may have been executed by the device.
type Retry struct {
	Executor shdlc.Executor
	// MaxErrors is the number of failures tolerated before giving up.
	MaxErrors int
	// Delay is the wait before sending again.
	Delay time.Duration
}

// NewRetry creates Retry with defaults.
func NewRetry(executor shdlc.Executor) *Retry {
	return &Retry{
		Executor:  executor,
		MaxErrors: DefaultMaxErrors,
		Delay:     DefaultRetryDelay,
	}
}

// Execute implements shdlc.Executor.
func (r *Retry) Execute(ctx context.Context, cmd shdlc.Command) (interface{}, error) {
	for allowed := r.MaxErrors; ; allowed-- {
		result, err := r.Executor.Execute(ctx, cmd)
		if err == nil || allowed <= 0 || !Retryable(cmd, err) {
			return result, err
		}
		glog.Warningf("command 0x%02x: %v (%d more errors allowed)", cmd.ID(), err, allowed)
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Retryable determines whether cmd can be sent again after err.
func Retryable(cmd shdlc.Command, err error) bool {
	if errors.Is(err, shdlc.ErrBusy) {
		return true
	}
	if !shdlc.IsIdempotent(cmd) {
		return false
	}
	return errors.Is(err, shdlc.ErrTimeout) ||
		errors.Is(err, shdlc.ErrChecksumMismatch) ||
		errors.Is(err, shdlc.ErrMalformedFrame)
}
