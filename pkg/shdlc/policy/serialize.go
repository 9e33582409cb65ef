package policy

import (
	"context"
	"sync"

	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

// Serialize queues concurrent callers instead of failing them with
// shdlc.ErrBusy. Waiting for the turn honors ctx.
type Serialize struct {
	Executor shdlc.Executor

	once sync.Once
	sem  chan struct{}
}

// NewSerialize creates Serialize.
func NewSerialize(executor shdlc.Executor) *Serialize {
	return &Serialize{Executor: executor}
}

// Execute implements shdlc.Executor.
func (s *Serialize) Execute(ctx context.Context, cmd shdlc.Command) (interface{}, error) {
	s.once.Do(func() { s.sem = make(chan struct{}, 1) })
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()
	return s.Executor.Execute(ctx, cmd)
}
