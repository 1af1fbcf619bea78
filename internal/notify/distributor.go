package notify

import (
	"sync"

	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
)

// Broadcast channel names.
const (
	ChannelMessage    = "message"
	ChannelFingerlist = "fingerlist"
)

// Broadcaster pushes a payload to every live subscriber of channel.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Publisher sends a text payload to a message bus topic.
type Publisher interface {
	Publish(topic, payload string) error
}

// Logger is the subset of logging.Logger the distributor needs.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Distributor implements Notify and NotifyFingerlist.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Sinks may be attached
//     after construction.
type Distributor struct {
	history *LogHistory
	clock   Clock
	logger  Logger

	// order keeps message broadcasts in history order.
	order sync.Mutex

	mu          sync.RWMutex
	broadcaster Broadcaster
	publisher   Publisher
	topic       string
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithClock sets the timestamp source. Defaults to SystemClock.
func WithClock(c Clock) Option {
	return func(d *Distributor) { d.clock = c }
}

// WithLogger mirrors every notification to the structured log.
func WithLogger(l Logger) Option {
	return func(d *Distributor) { d.logger = l }
}

// WithBroadcaster sets the live subscriber sink.
func WithBroadcaster(b Broadcaster) Option {
	return func(d *Distributor) { d.broadcaster = b }
}

// New creates a Distributor keeping historySize messages.
func New(historySize int, opts ...Option) *Distributor {
	d := &Distributor{
		history: NewLogHistory(historySize),
		clock:   SystemClock{},
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetBroadcaster replaces the live subscriber sink. Nil detaches it.
func (d *Distributor) SetBroadcaster(b Broadcaster) {
	d.mu.Lock()
	d.broadcaster = b
	d.mu.Unlock()
}

// SetPublisher attaches the message bus sink and the topic raw messages go
// to. A nil publisher detaches it.
func (d *Distributor) SetPublisher(p Publisher, topic string) {
	d.mu.Lock()
	d.publisher = p
	d.topic = topic
	d.mu.Unlock()
}

// Notify records message and fans it out to every sink.
func (d *Distributor) Notify(message string) {
	stamped := "[" + Timestamp(d.clock) + "]: " + message
	d.logger.Info("notification", "message", message)

	d.order.Lock()
	rendered := d.history.Add(stamped)
	d.mu.RLock()
	broadcaster, publisher, topic := d.broadcaster, d.publisher, d.topic
	d.mu.RUnlock()
	if broadcaster != nil {
		broadcaster.Broadcast(ChannelMessage, rendered)
	}
	d.order.Unlock()

	if publisher != nil && topic != "" {
		if err := publisher.Publish(topic, message); err != nil {
			d.logger.Debug("notification not published", "topic", topic, "error", err)
		}
	}
}

// NotifyFingerlist pushes a fingerprint list snapshot to live subscribers.
func (d *Distributor) NotifyFingerlist(list []sensor.Fingerprint) {
	d.mu.RLock()
	broadcaster := d.broadcaster
	d.mu.RUnlock()

	if list == nil {
		list = []sensor.Fingerprint{}
	}
	if broadcaster != nil {
		broadcaster.Broadcast(ChannelFingerlist, list)
	}
}

// History returns the stored messages, newest first.
func (d *Distributor) History() []string {
	return d.history.Entries()
}

// RenderHistory returns the history as broadcast on the message channel.
func (d *Distributor) RenderHistory() string {
	return d.history.Render()
}
