package doorbell

import (
	"sync"
	"time"
)

// Ring topic payloads.
const (
	PayloadOn  = "on"
	PayloadOff = "off"
)

// Tone is one note of a buzzer pattern.
type Tone struct {
	Frequency int
	Duration  time.Duration
}

// RingPattern plays while the button is held.
var RingPattern = []Tone{
	{Frequency: 400, Duration: 500 * time.Millisecond},
	{Frequency: 500, Duration: 500 * time.Millisecond},
	{Frequency: 600, Duration: 500 * time.Millisecond},
}

// BootPattern plays once the doorbell has started.
var BootPattern = []Tone{
	{Frequency: 200, Duration: 500 * time.Millisecond},
	{Frequency: 300, Duration: 500 * time.Millisecond},
	{Frequency: 400, Duration: 500 * time.Millisecond},
}

// Edge is the change seen by one Sample.
type Edge int

const (
	EdgeNone Edge = iota
	EdgePressed
	EdgeReleased
)

func (e Edge) String() string {
	switch e {
	case EdgePressed:
		return "pressed"
	case EdgeReleased:
		return "released"
	default:
		return "none"
	}
}

// Input is the doorbell button.
type Input interface {
	Pressed() (bool, error)
}

// Buzzer plays tone patterns. Play must return immediately; a new Play
// or Stop ends the pattern in progress.
type Buzzer interface {
	Play(pattern []Tone)
	Stop()
}

// Publisher sends a text payload to a message bus topic.
type Publisher interface {
	Publish(topic, payload string) error
}

// Recorder is told about every edge.
type Recorder interface {
	RecordRing(pressed bool)
}

// Logger is the subset of logging.Logger the detector needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Detector compares each button sample with the previous one.
//
// Thread Safety:
//   - Sample is meant to be called from one goroutine. SetPublisher and
//     Pressed may be called from any goroutine.
type Detector struct {
	input     Input
	buzzer    Buzzer
	logger    Logger
	recorders []Recorder

	mu        sync.Mutex
	previous  bool
	publisher Publisher
	topic     string
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// WithRecorder adds a sink told about every edge.
func WithRecorder(r Recorder) Option {
	return func(d *Detector) { d.recorders = append(d.recorders, r) }
}

// NewDetector creates a Detector that starts from "not pressed".
func NewDetector(input Input, buzzer Buzzer, opts ...Option) *Detector {
	d := &Detector{
		input:  input,
		buzzer: buzzer,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetPublisher attaches the message bus and the ring topic. A nil
// publisher detaches it.
func (d *Detector) SetPublisher(p Publisher, topic string) {
	d.mu.Lock()
	d.publisher = p
	d.topic = topic
	d.mu.Unlock()
}

// Pressed returns the last sampled button state.
func (d *Detector) Pressed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.previous
}

// Sample reads the button once and acts on a change.
//
// A read error keeps the previous sample, so a flaky input never produces
// an edge.
func (d *Detector) Sample() Edge {
	current, err := d.input.Pressed()
	if err != nil {
		d.logger.Warn("reading doorbell input failed", "error", err)
		return EdgeNone
	}

	d.mu.Lock()
	previous := d.previous
	d.previous = current
	publisher, topic := d.publisher, d.topic
	d.mu.Unlock()

	if current == previous {
		return EdgeNone
	}

	payload := PayloadOff
	edge := EdgeReleased
	if current {
		payload = PayloadOn
		edge = EdgePressed
		d.buzzer.Play(RingPattern)
	} else {
		d.buzzer.Stop()
	}

	d.logger.Debug("doorbell edge", "edge", edge.String())
	for _, r := range d.recorders {
		r.RecordRing(current)
	}

	if publisher != nil && topic != "" {
		if err := publisher.Publish(topic, payload); err != nil {
			d.logger.Debug("ring not published", "topic", topic, "error", err)
		}
	}
	return edge
}
