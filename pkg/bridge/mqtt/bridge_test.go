package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/shdlc.go/pkg/shdlc"
)

type published struct {
	topic   string
	payload []byte
}

type chanPublisher chan published

func (p chanPublisher) Pub(topic string, payload []byte) paho.Token {
	p <- published{topic: topic, payload: payload}
	return &paho.DummyToken{}
}

func fakeDevice(ctx context.Context, cmd shdlc.Command) (interface{}, error) {
	switch cmd.ID() {
	case 0x38:
		return []byte{0, 0, 0, 0, 0, 0x02, 0x83, 0xb4}, nil
	case 0x35:
		return nil, &shdlc.DeviceError{Command: 0x35, Code: shdlc.ErrCodeNoMeasurement}
	case 0x33:
		return cmd.Payload(), nil
	}
	return nil, shdlc.ErrTimeout
}

func TestBridgeHandleRequest(t *testing.T) {
	code := shdlc.ErrCodeNoMeasurement
	testCases := []struct {
		name    string
		request string
		reply   Reply
	}{
		{
			name:    "result",
			request: `{"id":"1","command":56}`,
			reply:   Reply{ID: "1", Command: 0x38, Data: HexBytes{0, 0, 0, 0, 0, 0x02, 0x83, 0xb4}},
		},
		{
			name:    "request data",
			request: `{"command":51,"data":"00fa3608"}`,
			reply:   Reply{Command: 0x33, Data: HexBytes{0x00, 0xfa, 0x36, 0x08}},
		},
		{
			name:    "device error",
			request: `{"id":"2","command":53}`,
			reply: Reply{
				ID:        "2",
				Command:   0x35,
				Error:     "device error on command 0x35: no measurement started (0x24)",
				ErrorCode: &code,
			},
		},
		{
			name:    "timeout",
			request: `{"id":"3","command":52}`,
			reply:   Reply{ID: "3", Command: 0x34, Error: "response timeout"},
		},
	}
	b := NewBridge(nil, shdlc.ExecuteFunc(fakeDevice), "bench")
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, &tc.reply, b.HandleRequest(context.Background(), []byte(tc.request)))
		})
	}
}

func TestBridgeInvalidRequest(t *testing.T) {
	b := NewBridge(nil, shdlc.ExecuteFunc(fakeDevice), "bench")
	for _, req := range []string{`{`, `{"command":56,"data":"xyz"}`, `{"command":300}`} {
		reply := b.HandleRequest(context.Background(), []byte(req))
		require.Contains(t, reply.Error, "invalid request", req)
		require.Nil(t, reply.ErrorCode)
	}
}

func TestBridgeQueueFull(t *testing.T) {
	pub := make(chanPublisher, 2)
	b := NewBridge(nil, shdlc.ExecuteFunc(fakeDevice), "bench")
	b.Publisher = pub
	for i := 0; i < requestQueueSize; i++ {
		b.enqueue(b.RequestTopic(), []byte(`{"command":56}`))
	}
	require.Empty(t, pub)

	b.enqueue(b.RequestTopic(), []byte(`{"id":"y","command":56}`))
	msg := <-pub
	require.JSONEq(t, `{"id":"y","command":56,"error":"transaction in progress"}`, string(msg.payload))

	b.enqueue(b.RequestTopic(), []byte(`{`))
	var reply Reply
	require.NoError(t, json.Unmarshal((<-pub).payload, &reply))
	require.Empty(t, reply.ID)
	require.Contains(t, reply.Error, "invalid request")
}

func TestRequestRawCommand(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"command":56,"data":"7e7d","timeout-ms":250,"idempotent":true}`), &req))
	cmd := req.RawCommand()
	require.Equal(t, byte(0x38), cmd.ID())
	require.Equal(t, []byte{0x7e, 0x7d}, cmd.Payload())
	require.Equal(t, 250*time.Millisecond, cmd.Timeout())
	require.True(t, shdlc.IsIdempotent(cmd))
}

func TestBridgeRun(t *testing.T) {
	q := newOfflineQueue("lab/")
	pub := make(chanPublisher, 1)
	b := NewBridge(q, shdlc.ExecuteFunc(fakeDevice), "bench")
	b.Publisher = pub
	require.Equal(t, "shdlc/bench/request", b.RequestTopic())
	require.Equal(t, "shdlc/bench/reply", b.ReplyTopic())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	require.Eventually(t, func() bool {
		q.subsLock.RLock()
		defer q.subsLock.RUnlock()
		return len(q.subs[b.RequestTopic()]) > 0
	}, time.Second, time.Millisecond)

	q.deliver("shdlc/bench/request", []byte(`{"id":"x","command":56}`))
	select {
	case msg := <-pub:
		require.Equal(t, "shdlc/bench/reply", msg.topic)
		require.JSONEq(t, `{"id":"x","command":56,"data":"00000000000283b4"}`, string(msg.payload))
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.Empty(t, q.subs)
}
