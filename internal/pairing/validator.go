package pairing

import (
	"context"
	"crypto/rand"
	"io"
	"sync"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/nerrad567/gray-logic-doorbell/internal/notify"
	"github.com/nerrad567/gray-logic-doorbell/internal/settings"
)

// Notification texts.
const (
	MsgPairingSuccessful = "Pairing successful."
	MsgPairingFailed     = "Pairing failed."
)

// Store persists the pairing state. settings.Manager implements it.
type Store interface {
	PairingState(ctx context.Context) (settings.PairingState, error)
	SetPairingState(ctx context.Context, state settings.PairingState) error
}

// Marker reads and writes the code held by the sensor. sensor.Device
// implements it.
type Marker interface {
	PairingMarker(ctx context.Context) (string, error)
	SetPairingMarker(ctx context.Context, marker string) error
}

// Notifier receives operator-facing messages.
type Notifier interface {
	Notify(message string)
}

// Recorder is told about every pairing decision that changes or confirms
// the persisted state.
type Recorder interface {
	RecordPairing(valid bool)
}

// Logger is the subset of logging.Logger the validator needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Validator implements pairing and the pairing check.
//
// Callers must hold exclusive access to the sensor while calling Pair or
// CheckValid. The validator serialises its own calls but knows nothing
// about other users of the device.
type Validator struct {
	marker   Marker
	store    Store
	notifier Notifier

	logger    Logger
	recorders []Recorder
	clock     notify.Clock
	random    io.Reader
	uptime    func() (uint64, error)
	username  string
	password  string

	mu sync.Mutex
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithRecorder adds a sink told about pairing outcomes.
func WithRecorder(r Recorder) Option {
	return func(v *Validator) { v.recorders = append(v.recorders, r) }
}

// WithCredentials sets the message bus credentials mixed into new codes.
func WithCredentials(username, password string) Option {
	return func(v *Validator) {
		v.username = username
		v.password = password
	}
}

// WithClock sets the wall clock mixed into new codes.
func WithClock(c notify.Clock) Option {
	return func(v *Validator) { v.clock = c }
}

// WithRandom replaces crypto/rand as the random source.
func WithRandom(r io.Reader) Option {
	return func(v *Validator) { v.random = r }
}

// WithUptime replaces the host uptime source.
func WithUptime(f func() (uint64, error)) Option {
	return func(v *Validator) { v.uptime = f }
}

// NewValidator creates a Validator for the sensor behind marker.
func NewValidator(marker Marker, store Store, notifier Notifier, opts ...Option) *Validator {
	v := &Validator{
		marker:   marker,
		store:    store,
		notifier: notifier,
		logger:   noopLogger{},
		clock:    notify.SystemClock{},
		random:   rand.Reader,
		uptime:   host.Uptime,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Pair writes a new code to the sensor and, if the sensor accepts it,
// persists the code as valid.
//
// Returns:
//   - bool: true if the sensor accepted the code and it was persisted
func (v *Validator) Pair(ctx context.Context) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pairLocked(ctx)
}

func (v *Validator) pairLocked(ctx context.Context) bool {
	code := v.GenerateCode()

	if err := v.marker.SetPairingMarker(ctx, code); err != nil {
		v.logger.Warn("sensor rejected pairing code", "error", err)
		v.notifier.Notify(MsgPairingFailed)
		return false
	}

	if err := v.store.SetPairingState(ctx, settings.PairingState{Code: code, Valid: true}); err != nil {
		v.logger.Error("persisting pairing state failed", "error", err)
		v.notifier.Notify(MsgPairingFailed)
		return false
	}

	v.logger.Info("sensor paired")
	v.record(true)
	v.notifier.Notify(MsgPairingSuccessful)
	return true
}

// CheckValid reports whether the attached sensor is the one the doorbell
// was paired with.
//
// With no persisted code the sensor is paired on the spot. An invalid
// pairing stays invalid. A sensor returning a different non-empty code
// invalidates the pairing. A sensor returning nothing, or a store that
// cannot be read, leaves the persisted state untouched.
func (v *Validator) CheckValid(ctx context.Context) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	state, err := v.store.PairingState(ctx)
	if err != nil {
		v.logger.Error("reading pairing state failed", "error", err)
		return false
	}

	if state.Code == "" {
		v.logger.Info("no pairing code stored, pairing sensor")
		return v.pairLocked(ctx)
	}

	if !state.Valid {
		v.logger.Warn("pairing has been invalidated previously")
		return false
	}

	actual, err := v.marker.PairingMarker(ctx)
	if err != nil {
		v.logger.Warn("reading sensor pairing code failed", "error", err)
		actual = ""
	}

	if actual == state.Code {
		return true
	}

	if actual == "" {
		return state.Valid
	}

	v.logger.Warn("sensor pairing code mismatch, invalidating pairing")
	if err := v.store.SetPairingState(ctx, settings.PairingState{Code: state.Code, Valid: false}); err != nil {
		v.logger.Error("persisting invalid pairing failed", "error", err)
	}
	v.record(false)
	return false
}

func (v *Validator) record(valid bool) {
	for _, r := range v.recorders {
		r.RecordPairing(valid)
	}
}
