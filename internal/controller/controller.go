package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
)

// Controller is the doorbell control loop.
//
// Thread Safety:
//   - Run (or Tick) must be driven by a single goroutine. Every other
//     method is safe for concurrent use.
type Controller struct {
	device   sensor.Device
	pairing  Pairing
	notifier Notifier
	timing   Timing

	doorbell  Sampler
	logger    Logger
	recorders []Recorder

	mu                   sync.Mutex
	mode                 Mode
	maintenanceRequested bool
	pendingEnroll        EnrollRequested
	pendingSettings      *SettingsChanged
	previous             sensor.MatchOutcome
	fingerprints         []sensor.Fingerprint
	publisher            Publisher
	topics               Topics

	// lease serialises WithMaintenance callers.
	lease sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithDoorbell sets the button sampled every tick.
func WithDoorbell(s Sampler) Option {
	return func(c *Controller) { c.doorbell = s }
}

// WithRecorder adds a sink for scan, enrollment and admin events.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorders = append(c.recorders, r) }
}

// New creates a Controller in Scanning mode.
//
// Parameters:
//   - device: the sensor, owned by the controller from now on
//   - pairing: pairing check consulted before a match is published
//   - notifier: destination of operator messages
//   - timing: loop intervals, see DefaultTiming
func New(device sensor.Device, pairing Pairing, notifier Notifier, timing Timing, opts ...Option) *Controller {
	c := &Controller{
		device:   device,
		pairing:  pairing,
		notifier: notifier,
		timing:   timing,
		logger:   noopLogger{},
		mode:     Scanning,
		previous: sensor.MatchOutcome{Result: sensor.NoFinger},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPublisher attaches the message bus for match results. A nil
// publisher detaches it.
func (c *Controller) SetPublisher(p Publisher, topics Topics) {
	c.mu.Lock()
	c.publisher = p
	c.topics = topics
	c.mu.Unlock()
}

// Mode returns the current operating mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Mode:                 c.mode.String(),
		SensorConnected:      c.device.Connected(),
		MaintenanceRequested: c.maintenanceRequested,
		Fingerprints:         len(c.fingerprints),
	}
}

// Fingerprints returns the cached list of enrolled templates.
func (c *Controller) Fingerprints() []sensor.Fingerprint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sensor.Fingerprint, len(c.fingerprints))
	copy(out, c.fingerprints)
	return out
}

// Handle submits a command.
//
// Returns:
//   - error: nil on success, or:
//   - ErrBusy for EnrollRequested outside Scanning
//   - ErrUnknownCommand for an unrecognised command
func (c *Controller) Handle(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd := cmd.(type) {
	case EnrollRequested:
		if c.mode != Scanning {
			return fmt.Errorf("%w: mode is %s", ErrBusy, c.mode)
		}
		c.pendingEnroll = cmd
		c.mode = Enrolling
		c.logger.Info("enrollment queued", "slot", cmd.Slot, "name", cmd.Label)

	case MaintenanceRequested:
		c.maintenanceRequested = true

	case MaintenanceReleased:
		c.maintenanceRequested = false
		if c.mode == Maintenance {
			c.mode = Scanning
		}

	case SettingsChanged:
		c.pendingSettings = &cmd

	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	return nil
}

// Boot connects the sensor, checks the pairing and loads the fingerprint
// list. It must be called before Run.
//
// Returns:
//   - bool: whether the sensor is connected
func (c *Controller) Boot(ctx context.Context, pin string) bool {
	if err := c.device.Connect(ctx, pin); err != nil {
		c.logger.Error("connecting sensor failed", "error", err)
	} else {
		c.logger.Info("sensor connected")
	}

	if !c.pairing.CheckValid(ctx) {
		c.notifier.Notify(MsgPairingInvalidAtBoot)
	}

	if c.device.Connected() {
		c.refreshFingerprints(ctx)
	}
	return c.device.Connected()
}

// SignalReady sets the sensor LED to show whether the doorbell is usable.
func (c *Controller) SignalReady() {
	if c.device.Connected() {
		c.device.SetLED(sensor.LEDReady)
	} else {
		c.device.SetLED(sensor.LEDError)
	}
}

// Tick runs one loop iteration and returns how long the loop should pause
// before the next one. Zero means the normal tick interval.
func (c *Controller) Tick(ctx context.Context) time.Duration {
	c.mu.Lock()
	mode := c.mode
	enroll := c.pendingEnroll
	settings := c.pendingSettings
	if mode != Maintenance {
		c.pendingSettings = nil
	}
	c.mu.Unlock()

	if settings != nil && mode != Maintenance {
		c.device.SetIgnoreTouchRing(settings.IgnoreTouchRing)
		c.logger.Info("sensor setting applied", "ignore_touch_ring", settings.IgnoreTouchRing)
	}

	var cooldown time.Duration
	switch mode {
	case Scanning:
		if c.device.Connected() {
			cooldown = c.scan(ctx)
		}

	case Enrolling:
		c.enroll(ctx, enroll)
		c.mu.Lock()
		c.pendingEnroll = EnrollRequested{}
		c.mode = Scanning
		c.mu.Unlock()

	case Maintenance:
		// The sensor belongs to the maintenance holder.
	}

	c.mu.Lock()
	if c.maintenanceRequested && c.mode != Maintenance {
		c.mode = Maintenance
		c.logger.Debug("entered maintenance mode")
	}
	c.mu.Unlock()

	if c.doorbell != nil {
		c.doorbell.Sample()
	}
	return cooldown
}

// Run ticks until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("control loop started")
	defer c.logger.Info("control loop stopped")

	for {
		wait := c.Tick(ctx)
		if wait <= 0 {
			wait = c.timing.TickInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (c *Controller) publish(topic, payload string) {
	c.mu.Lock()
	publisher := c.publisher
	c.mu.Unlock()

	if publisher == nil || topic == "" {
		return
	}
	if err := publisher.Publish(topic, payload); err != nil {
		c.logger.Debug("publish failed", "topic", topic, "error", err)
	}
}

// refreshFingerprints reloads the template list from the sensor and
// pushes it to live subscribers. Callers must own the sensor.
func (c *Controller) refreshFingerprints(ctx context.Context) {
	list, err := c.device.List(ctx)
	if err != nil {
		c.logger.Warn("listing fingerprints failed", "error", err)
		return
	}

	c.mu.Lock()
	c.fingerprints = list
	c.mu.Unlock()

	c.notifier.NotifyFingerlist(list)
}
