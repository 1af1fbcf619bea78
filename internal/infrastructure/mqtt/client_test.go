package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "FingerprintDoorbell",
		},
		Auth:      config.MQTTAuthConfig{Username: "door", Password: "secret"},
		RootTopic: "fingerprintDoorbell",
		QoS:       1,
		Reconnect: config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 30},
	}
}

// fakeToken is an already-completed paho token.
type fakeToken struct {
	err  error
	rc   byte
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	done := make(chan struct{})
	close(done)
	return &fakeToken{err: err, done: done}
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) ReturnCode() byte               { return t.rc }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakePaho overrides the paho.Client methods the wrapper uses. Calls to any
// other method panic on the nil embedded interface.
type fakePaho struct {
	pahomqtt.Client

	mu            sync.Mutex
	connectErrs   []*fakeToken
	connectCalls  int
	connected     bool
	published     []published
	subscribed    map[string]pahomqtt.MessageHandler
	subscribeErr  error
	disconnectedQ uint
}

func (f *fakePaho) Connect() pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	if len(f.connectErrs) > 0 {
		tok := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		if tok.err != nil {
			return tok
		}
	}
	f.connected = true
	return newFakeToken(nil)
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) Disconnect(quiesce uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnectedQ = quiesce
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic, qos, retained, string(payload.([]byte))})
	return newFakeToken(nil)
}

func (f *fakePaho) Subscribe(topic string, _ byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return newFakeToken(f.subscribeErr)
	}
	if f.subscribed == nil {
		f.subscribed = make(map[string]pahomqtt.MessageHandler)
	}
	f.subscribed[topic] = callback
	return newFakeToken(nil)
}

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	pahomqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func newTestClient(f *fakePaho) *Client {
	c := newClient(testConfig())
	c.client = f
	return c
}

func TestConnect(t *testing.T) {
	f := &fakePaho{}
	c := newTestClient(f)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !c.IsConnected() {
		t.Error("IsConnected() = false after successful Connect")
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_Refusals(t *testing.T) {
	tests := []struct {
		name    string
		rc      byte
		wantErr error
	}{
		{"bad credentials", packets.ErrRefusedBadUsernameOrPassword, ErrNotAuthorized},
		{"not authorised", packets.ErrRefusedNotAuthorised, ErrNotAuthorized},
		{"server unavailable", packets.ErrRefusedServerUnavailable, ErrConnectionFailed},
		{"network error", packets.ErrNetworkError, ErrConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := newFakeToken(errors.New("refused"))
			tok.rc = tt.rc
			c := newTestClient(&fakePaho{connectErrs: []*fakeToken{tok}})

			err := c.Connect(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Connect() error = %v, want %v", err, tt.wantErr)
			}
			if c.IsConnected() {
				t.Error("IsConnected() = true after refused connect")
			}
		})
	}
}

func TestConnectWithRetry_StopsOnAuthRefusal(t *testing.T) {
	tok := newFakeToken(errors.New("bad user name or password"))
	tok.rc = packets.ErrRefusedBadUsernameOrPassword
	f := &fakePaho{connectErrs: []*fakeToken{tok}}
	c := newTestClient(f)

	failures := 0
	err := c.ConnectWithRetry(context.Background(), func(error, time.Duration) { failures++ })
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("ConnectWithRetry() error = %v, want ErrNotAuthorized", err)
	}
	if f.connectCalls != 1 {
		t.Errorf("connect attempts = %d, want 1", f.connectCalls)
	}
	if failures != 0 {
		t.Errorf("onFailure called %d times, want 0", failures)
	}
}

func TestConnectWithRetry_RetriesTransientFailure(t *testing.T) {
	tok := newFakeToken(errors.New("connection refused"))
	tok.rc = packets.ErrNetworkError
	f := &fakePaho{connectErrs: []*fakeToken{tok}}
	c := newTestClient(f)

	var delays []time.Duration
	err := c.ConnectWithRetry(context.Background(), func(_ error, next time.Duration) {
		delays = append(delays, next)
	})
	if err != nil {
		t.Fatalf("ConnectWithRetry() error = %v", err)
	}
	if f.connectCalls != 2 {
		t.Errorf("connect attempts = %d, want 2", f.connectCalls)
	}
	if len(delays) != 1 || delays[0] != time.Second {
		t.Errorf("retry delays = %v, want [1s]", delays)
	}
}

func TestConnectWithRetry_ContextCancelled(t *testing.T) {
	tok := newFakeToken(errors.New("connection refused"))
	f := &fakePaho{connectErrs: []*fakeToken{tok}}
	c := newTestClient(f)

	ctx, cancel := context.WithCancel(context.Background())
	err := c.ConnectWithRetry(ctx, func(error, time.Duration) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ConnectWithRetry() error = %v, want context.Canceled", err)
	}
}

func TestClose(t *testing.T) {
	f := &fakePaho{}
	c := newTestClient(f)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if f.disconnectedQ != defaultDisconnectQuiesce {
		t.Errorf("quiesce = %d, want %d", f.disconnectedQ, defaultDisconnectQuiesce)
	}

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}

func TestHealthCheck_Errors(t *testing.T) {
	c := newTestClient(&fakePaho{})

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() disconnected = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() cancelled = %v, want context.Canceled", err)
	}
}

func TestPublish(t *testing.T) {
	f := &fakePaho{}
	c := newTestClient(f)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := c.Publish(c.Topics().Ring(), "on"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(f.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(f.published))
	}
	got := f.published[0]
	want := published{topic: "fingerprintDoorbell/ring", qos: 1, retained: false, payload: "on"}
	if got != want {
		t.Errorf("published %+v, want %+v", got, want)
	}
}

func TestPublishRaw_Validation(t *testing.T) {
	c := newTestClient(&fakePaho{})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 0, ErrInvalidTopic},
		{"invalid qos", "a/b", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "a/b", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
		{"empty payload ok", "a/b", nil, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.PublishRaw(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PublishRaw() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublish_Disconnected(t *testing.T) {
	c := newTestClient(&fakePaho{})

	if err := c.Publish("fingerprintDoorbell/ring", "on"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe(t *testing.T) {
	f := &fakePaho{}
	c := newTestClient(f)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	var got []string
	handler := func(topic string, payload []byte) error {
		got = append(got, topic+"="+string(payload))
		return nil
	}
	topic := c.Topics().IgnoreTouchRing()
	if err := c.Subscribe(topic, 1, handler); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if c.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", c.SubscriptionCount())
	}

	f.subscribed[topic](nil, fakeMessage{topic: topic, payload: []byte("on")})
	if len(got) != 1 || got[0] != "fingerprintDoorbell/ignoreTouchRing=on" {
		t.Errorf("handler received %v", got)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := newTestClient(&fakePaho{})
	noop := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Subscribe("a", 3, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("invalid qos error = %v", err)
	}
	if err := c.Subscribe("a", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
	if err := c.Subscribe("a", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v", err)
	}
}

func TestSubscribe_BrokerErrorIsNotTracked(t *testing.T) {
	f := &fakePaho{subscribeErr: errors.New("denied")}
	c := newTestClient(f)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	err := c.Subscribe("fingerprintDoorbell/ignoreTouchRing", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Fatalf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
}

func TestReconnect_RestoresSubscriptionsAndCallbacks(t *testing.T) {
	f := &fakePaho{}
	c := newTestClient(f)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	topic := c.Topics().IgnoreTouchRing()
	if err := c.Subscribe(topic, 1, func(string, []byte) error { return nil }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	var connects, disconnects int
	c.SetOnConnect(func() { connects++ })
	c.SetOnDisconnect(func(error) { disconnects++ })

	c.handleDisconnect(errors.New("link down"))
	if c.IsConnected() {
		t.Error("IsConnected() = true after connection lost")
	}
	delete(f.subscribed, topic)

	c.handleConnect()
	if _, ok := f.subscribed[topic]; !ok {
		t.Error("subscription not restored on reconnect")
	}
	if connects != 1 || disconnects != 1 {
		t.Errorf("callbacks connect=%d disconnect=%d, want 1 and 1", connects, disconnects)
	}
}

func TestWrapHandler_RecoversAndLogs(t *testing.T) {
	c := newTestClient(&fakePaho{})
	logger := &recordingLogger{}
	c.SetLogger(logger)
	msg := fakeMessage{topic: "t", payload: []byte("x")}

	c.wrapHandler(func(string, []byte) error { panic("boom") })(nil, msg)
	c.wrapHandler(func(string, []byte) error { return errors.New("bad payload") })(nil, msg)

	if len(logger.errors) != 1 {
		t.Errorf("error logs = %v, want one panic entry", logger.errors)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warn logs = %v, want one handler error entry", logger.warns)
	}
}
