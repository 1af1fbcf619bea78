package controller

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-doorbell/internal/doorbell"
	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
)

// Mode is the controller's operating mode.
type Mode int

const (
	Scanning Mode = iota
	Enrolling
	Maintenance
)

func (m Mode) String() string {
	switch m {
	case Scanning:
		return "scanning"
	case Enrolling:
		return "enrolling"
	case Maintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// Command is something submitted to Handle.
type Command interface {
	command()
}

// EnrollRequested queues one enrollment into Slot.
type EnrollRequested struct {
	Slot  int
	Label string
}

// MaintenanceRequested raises the maintenance flag.
type MaintenanceRequested struct{}

// MaintenanceReleased lowers the maintenance flag and resumes scanning.
type MaintenanceReleased struct{}

// SettingsChanged carries a sensor setting to apply from the loop.
type SettingsChanged struct {
	IgnoreTouchRing bool
}

func (EnrollRequested) command()      {}
func (MaintenanceRequested) command() {}
func (MaintenanceReleased) command()  {}
func (SettingsChanged) command()      {}

// Notifier receives operator-facing messages and fingerprint list
// snapshots. notify.Distributor implements it.
type Notifier interface {
	Notify(message string)
	NotifyFingerlist(list []sensor.Fingerprint)
}

// Pairing checks and renews the sensor pairing. pairing.Validator
// implements it.
type Pairing interface {
	CheckValid(ctx context.Context) bool
	Pair(ctx context.Context) bool
}

// Publisher sends a text payload to a message bus topic.
type Publisher interface {
	Publish(topic, payload string) error
}

// Sampler is the doorbell button, sampled once per tick.
type Sampler interface {
	Sample() doorbell.Edge
}

// Recorder is told about scan outcomes, enrollments and template
// administration. The audit trail and telemetry both implement it.
type Recorder interface {
	RecordScan(result string, slotID, confidence int, published bool)
	RecordEnrollment(slot int, label string, ok bool)
	RecordFingerprintChange(action string, slot int, label string)
}

// Logger is the subset of logging.Logger the controller needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Timing holds the loop's intervals.
type Timing struct {
	// TickInterval is the pause between ticks that return no cooldown.
	TickInterval time.Duration

	// MatchCooldown follows every match.
	MatchCooldown time.Duration

	// NoMatchCooldown follows a no-match that repeats the previous one.
	NoMatchCooldown time.Duration

	// MaintenanceTimeout bounds the wait for the maintenance grant.
	MaintenanceTimeout time.Duration

	// MaintenancePoll is how often the grant is checked while waiting.
	MaintenancePoll time.Duration
}

// DefaultTiming returns the intervals used when none are configured.
func DefaultTiming() Timing {
	return Timing{
		TickInterval:       50 * time.Millisecond,
		MatchCooldown:      3 * time.Second,
		NoMatchCooldown:    time.Second,
		MaintenanceTimeout: 5 * time.Second,
		MaintenancePoll:    50 * time.Millisecond,
	}
}

// TimingFromConfig takes the intervals from the doorbell config section,
// keeping defaults for anything unset.
func TimingFromConfig(cfg config.DoorbellConfig) Timing {
	t := DefaultTiming()
	if cfg.TickInterval > 0 {
		t.TickInterval = cfg.TickInterval
	}
	if cfg.MatchCooldown > 0 {
		t.MatchCooldown = cfg.MatchCooldown
	}
	if cfg.NoMatchCooldown > 0 {
		t.NoMatchCooldown = cfg.NoMatchCooldown
	}
	if cfg.MaintenanceTimeout > 0 {
		t.MaintenanceTimeout = cfg.MaintenanceTimeout
	}
	return t
}

// Topics are the message bus topics scan results go to.
type Topics struct {
	MatchID         string
	MatchName       string
	MatchConfidence string
}

// Status is a snapshot for the admin API.
type Status struct {
	Mode                 string `json:"mode"`
	SensorConnected      bool   `json:"sensor_connected"`
	MaintenanceRequested bool   `json:"maintenance_requested"`
	Fingerprints         int    `json:"fingerprints"`
}
