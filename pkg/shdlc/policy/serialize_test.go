package policy

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

func TestSerialize(t *testing.T) {
	var inflight, maxInflight int32
	exec := shdlc.ExecuteFunc(func(ctx context.Context, cmd shdlc.Command) (interface{}, error) {
		n := atomic.AddInt32(&inflight, 1)
		defer atomic.AddInt32(&inflight, -1)
		for {
			m := atomic.LoadInt32(&maxInflight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInflight, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return cmd.ID(), nil
	})
	s := NewSerialize(exec)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			r, err := s.Execute(context.Background(), &shdlc.RawCommand{CommandID: id})
			require.NoError(t, err)
			require.Equal(t, id, r)
		}(byte(i))
	}
	wg.Wait()
	require.Equal(t, int32(1), maxInflight)
}

func TestSerializeCanceled(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := NewSerialize(shdlc.ExecuteFunc(func(ctx context.Context, cmd shdlc.Command) (interface{}, error) {
		close(started)
		<-release
		return nil, nil
	}))
	done := make(chan struct{})
	go func() {
		s.Execute(context.Background(), &shdlc.RawCommand{CommandID: 0x38})
		close(done)
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Execute(ctx, &shdlc.RawCommand{CommandID: 0x39})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
	<-done
}

func TestSerializeZeroValue(t *testing.T) {
	s := &Serialize{Executor: shdlc.ExecuteFunc(func(ctx context.Context, cmd shdlc.Command) (interface{}, error) {
		return cmd.ID(), nil
	})}
	for _, id := range []byte{0x38, 0x39} {
		r, err := s.Execute(context.Background(), &shdlc.RawCommand{CommandID: id})
		require.NoError(t, err)
		require.Equal(t, id, r)
	}
}
