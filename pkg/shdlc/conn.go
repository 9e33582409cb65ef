package shdlc

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// TxState is the state of a transaction.
type TxState int

// Transaction states.
const (
	TxIdle TxState = iota
	TxSent
	TxCompleted
	TxTimedOut
	TxFailed
)

var txStateNames = [...]string{"idle", "sent", "completed", "timed-out", "failed"}

// String implements fmt.Stringer.
func (s TxState) String() string {
	if s >= 0 && int(s) < len(txStateNames) {
		return txStateNames[s]
	}
	return fmt.Sprintf("TxState(%d)", int(s))
}

// IsTerminal indicates the transaction is over.
func (s TxState) IsTerminal() bool {
	return s >= TxCompleted
}

// TxObserver is called when a transaction changes state.
type TxObserver interface {
	TxStateChanged(addr, cmd byte, state TxState)
}

// TxStateChangedFunc is func type of TxObserver.
type TxStateChangedFunc func(addr, cmd byte, state TxState)

// TxStateChanged implements TxObserver.
func (f TxStateChangedFunc) TxStateChanged(addr, cmd byte, state TxState) {
	f(addr, cmd, state)
}

// DefaultInterByteTimeout is the maximum gap between bytes of one frame.
const DefaultInterByteTimeout = 200 * time.Millisecond

// Conn is the master side of an SHDLC link.
// It owns the transport and allows one transaction in flight.
// Run must be running to receive responses.
type Conn struct {
	ReadWriter  io.ReadWriter
	Observer    TxObserver
	ReadTimeout bool // set to true if ReadWriter already supports timeout with Read
	// InterByteTimeout drops a partial frame when no byte arrives in time,
	// DefaultInterByteTimeout if 0.
	InterByteTimeout time.Duration

	lock    sync.Mutex
	pending *transaction
	resync  bool
	doneCh  chan struct{}
	done    sync.Once
	err     error

	// owned by Run.
	parser Parser
	lastRx time.Time
}

type transaction struct {
	addr   byte
	cmd    byte
	respCh chan response
}

type response struct {
	frame *Frame
	err   error
}

// NewConn creates a Conn.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{ReadWriter: rw}
}

// Run receives frames until ctx is done or the transport fails.
func (c *Conn) Run(ctx context.Context) (err error) {
	defer func() { c.shutdown(err) }()

	if c.ReadTimeout {
		buf := make([]byte, 64)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			n, err := c.ReadWriter.Read(buf)
			if err != nil {
				if os.IsTimeout(err) {
					continue
				}
				return err
			}
			c.receive(buf[:n])
		}
	}

	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			c.receive(chunk)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the transport if it is an io.Closer.
func (c *Conn) Close() error {
	if closer, ok := c.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Done is closed when Run exits.
func (c *Conn) Done() <-chan struct{} {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.doneChLocked()
}

func (c *Conn) doneChLocked() chan struct{} {
	if c.doneCh == nil {
		c.doneCh = make(chan struct{})
	}
	return c.doneCh
}

func (c *Conn) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		n, err := c.ReadWriter.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case chunkCh <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) receive(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	now := time.Now()
	c.lock.Lock()
	resync := c.resync
	c.resync = false
	c.lock.Unlock()
	if c.parser.Receiving() && (resync || now.Sub(c.lastRx) > c.interByteTimeout()) {
		glog.V(2).Info("RX partial frame dropped")
		c.parser.Reset()
	}
	c.lastRx = now

	for _, b := range chunk {
		pr := c.parser.Parse(b)
		if pr.Discarded {
			glog.V(3).Infof("RX discard %02x", b)
		}
		if pr.Wire != nil {
			c.handleWire(pr.Wire)
		}
	}
}

func (c *Conn) interByteTimeout() time.Duration {
	if c.InterByteTimeout > 0 {
		return c.InterByteTimeout
	}
	return DefaultInterByteTimeout
}

func (c *Conn) handleWire(wire []byte) {
	if glog.V(2) {
		glog.Infof("RX % x", wire)
	}
	frame, err := Decode(wire)

	c.lock.Lock()
	tx := c.pending
	if tx == nil {
		c.lock.Unlock()
		glog.V(1).Infof("no transaction pending, frame dropped: % x", wire)
		return
	}
	if frame != nil {
		if frame.Address != tx.addr {
			c.lock.Unlock()
			glog.V(1).Infof("response from address 0x%02x dropped, expecting 0x%02x", frame.Address, tx.addr)
			return
		}
		if id := frame.CommandID(); id != tx.cmd {
			err = &CommandMismatchError{Expected: tx.cmd, Actual: id}
		}
	}
	c.pending = nil
	c.lock.Unlock()

	if err != nil {
		frame = nil
	}
	tx.respCh <- response{frame: frame, err: err}
}

func (c *Conn) shutdown(err error) {
	c.done.Do(func() {
		c.lock.Lock()
		c.err = err
		tx := c.pending
		c.pending = nil
		close(c.doneChLocked())
		c.lock.Unlock()
		if tx != nil {
			tx.respCh <- response{err: c.closedErr()}
		}
	})
}

func (c *Conn) closedErr() error {
	if c.err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, c.err)
	}
	return ErrClosed
}

func (c *Conn) notify(tx *transaction, state TxState) {
	if glog.V(3) {
		glog.Infof("tx addr=0x%02x cmd=0x%02x %s", tx.addr, tx.cmd, state)
	}
	if o := c.Observer; o != nil {
		o.TxStateChanged(tx.addr, tx.cmd, state)
	}
}

// transact sends one request and waits for its response.
// The deadline starts before the request is written and is never extended.
func (c *Conn) transact(ctx context.Context, addr, cmd byte, data []byte, timeout time.Duration) (*Frame, error) {
	wire, err := Encode(addr, cmd, data)
	if err != nil {
		return nil, err
	}

	tx := &transaction{addr: addr, cmd: cmd, respCh: make(chan response, 1)}
	c.lock.Lock()
	select {
	case <-c.doneChLocked():
		c.lock.Unlock()
		return nil, c.closedErr()
	default:
	}
	if c.pending != nil {
		c.lock.Unlock()
		return nil, ErrBusy
	}
	// bytes left over from an earlier transaction must not be combined
	// with the response.
	c.pending, c.resync = tx, true
	c.lock.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if glog.V(2) {
		glog.Infof("TX % x", wire)
	}
	if _, err := c.ReadWriter.Write(wire); err != nil {
		c.release(tx)
		c.notify(tx, TxFailed)
		return nil, fmt.Errorf("write command 0x%02x: %w", cmd, err)
	}
	c.notify(tx, TxSent)

	select {
	case resp := <-tx.respCh:
		if resp.err != nil {
			c.notify(tx, TxFailed)
			return resp.frame, resp.err
		}
		c.notify(tx, TxCompleted)
		return resp.frame, nil
	case <-timer.C:
		c.release(tx)
		c.notify(tx, TxTimedOut)
		return nil, fmt.Errorf("%w: command 0x%02x to 0x%02x after %v", ErrTimeout, cmd, addr, timeout)
	case <-ctx.Done():
		c.release(tx)
		c.notify(tx, TxTimedOut)
		return nil, ctx.Err()
	}
}

func (c *Conn) release(tx *transaction) {
	c.lock.Lock()
	if c.pending == tx {
		c.pending = nil
	}
	c.lock.Unlock()
}
