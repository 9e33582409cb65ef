package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

const requestQueueSize = 16

// Publisher publishes a message.
type Publisher interface {
	Pub(topic string, payload []byte) paho.Token
}

// Bridge executes requests received on
//
//	<prefix>shdlc/<id>/request
//
// one at a time and publishes replies on
//
//	<prefix>shdlc/<id>/reply
type Bridge struct {
	Queue    *Queue
	Executor shdlc.Executor
	ID       string
	// Publisher sends replies, Queue if nil.
	Publisher Publisher

	reqCh chan []byte
}

// NewBridge creates a Bridge.
func NewBridge(q *Queue, executor shdlc.Executor, id string) *Bridge {
	return &Bridge{
		Queue:    q,
		Executor: executor,
		ID:       id,
		reqCh:    make(chan []byte, requestQueueSize),
	}
}

// RequestTopic is the topic requests are received from.
func (b *Bridge) RequestTopic() string {
	return fmt.Sprintf("shdlc/%s/request", b.ID)
}

// ReplyTopic is the topic replies are published to.
func (b *Bridge) ReplyTopic() string {
	return fmt.Sprintf("shdlc/%s/reply", b.ID)
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Queue.Sub(b.RequestTopic(), b.enqueue)
	defer sub.Close()
	glog.Infof("bridge serving %q", b.Queue.TopicPrefix+b.RequestTopic())
	for {
		select {
		case payload := <-b.reqCh:
			b.publish(b.HandleRequest(ctx, payload))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HandleRequest executes one encoded Request.
func (b *Bridge) HandleRequest(ctx context.Context, payload []byte) *Reply {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return (&Reply{}).Fail(fmt.Errorf("invalid request: %w", err))
	}
	reply := &Reply{ID: req.ID, Command: req.Command}
	result, err := b.Executor.Execute(ctx, req.RawCommand())
	if err != nil {
		glog.Warningf("request %q command 0x%02x: %v", req.ID, req.Command, err)
		return reply.Fail(err)
	}
	reply.Data = result.([]byte)
	return reply
}

func (b *Bridge) enqueue(topic string, payload []byte) {
	select {
	case b.reqCh <- payload:
	default:
		glog.Warningf("request queue full, request rejected")
		b.publish(rejectRequest(payload, shdlc.ErrBusy))
	}
}

func rejectRequest(payload []byte, reason error) *Reply {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		glog.Warningf("rejected request is invalid: %v", err)
		return (&Reply{}).Fail(fmt.Errorf("invalid request: %w", err))
	}
	return (&Reply{ID: req.ID, Command: req.Command}).Fail(reason)
}

func (b *Bridge) publish(reply *Reply) {
	encoded, err := json.Marshal(reply)
	if err != nil {
		glog.Errorf("encode reply: %v", err)
		return
	}
	var pub Publisher = b.Queue
	if b.Publisher != nil {
		pub = b.Publisher
	}
	pub.Pub(b.ReplyTopic(), encoded)
}
