package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	defaultEnrollTimeout = 10 * time.Second
	defaultPollInterval  = 50 * time.Millisecond
	defaultConfidence    = 150
	defaultPIN           = "00000000"
)

// Simulator is an in-software fingerprint sensor. A "finger" is an opaque
// token: placing a token that was enrolled into a slot produces a match.
//
// Thread Safety:
//   - All methods are safe for concurrent use, so test hooks and HTTP
//     simulator routes may drive it while the control loop scans.
type Simulator struct {
	mu sync.Mutex

	mem      Memory
	slots    map[int]Template
	capacity int
	pin      string

	connected  bool
	finger     string
	confidence int

	enrollTimeout time.Duration
	pollInterval  time.Duration

	nextScanFault   int
	markerReadFails bool
	rejectMarker    bool

	ignoreTouchRing bool
	led             LEDState
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithMemory sets the template storage. Defaults to a MapMemory.
func WithMemory(m Memory) SimulatorOption {
	return func(s *Simulator) { s.mem = m }
}

// WithCapacity sets the number of template slots.
func WithCapacity(n int) SimulatorOption {
	return func(s *Simulator) { s.capacity = n }
}

// WithPIN sets the PIN Connect expects.
func WithPIN(pin string) SimulatorOption {
	return func(s *Simulator) { s.pin = pin }
}

// WithEnrollTimeout sets how long Enroll waits for a finger.
func WithEnrollTimeout(d time.Duration) SimulatorOption {
	return func(s *Simulator) { s.enrollTimeout = d }
}

// WithConfidence sets the confidence reported for matches.
func WithConfidence(c int) SimulatorOption {
	return func(s *Simulator) { s.confidence = c }
}

// NewSimulator creates a disconnected Simulator.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		slots:         make(map[int]Template),
		capacity:      MaxSlot,
		pin:           defaultPIN,
		confidence:    defaultConfidence,
		enrollTimeout: defaultEnrollTimeout,
		pollInterval:  defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mem == nil {
		s.mem = NewMapMemory()
	}
	return s
}

// Connect checks the PIN and loads the template memory.
func (s *Simulator) Connect(ctx context.Context, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false
	if pin != s.pin {
		return ErrWrongPIN
	}
	slots, err := s.mem.Slots(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	s.slots = slots
	s.connected = true
	return nil
}

// Connected reports whether Connect succeeded.
func (s *Simulator) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Disconnect simulates the sensor dropping off its serial line.
func (s *Simulator) Disconnect() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}

// Scan matches the currently placed finger against enrolled templates.
func (s *Simulator) Scan(_ context.Context) MatchOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return MatchOutcome{Result: ScanError, StatusCode: CodePacketError}
	}
	if code := s.nextScanFault; code != 0 {
		s.nextScanFault = 0
		return MatchOutcome{Result: ScanError, StatusCode: code}
	}
	if s.finger == "" {
		return MatchOutcome{Result: NoFinger, StatusCode: CodeNoFinger}
	}

	best := 0
	for id, t := range s.slots {
		if t.Token == s.finger && (best == 0 || id < best) {
			best = id
		}
	}
	if best == 0 {
		return MatchOutcome{Result: NoMatchFound, StatusCode: CodeNotFound}
	}
	return MatchOutcome{
		Result:     MatchFound,
		MatchID:    best,
		MatchName:  s.slots[best].Name,
		Confidence: s.confidence,
		StatusCode: CodeOK,
	}
}

// Enroll waits for a finger and stores it in slot.
func (s *Simulator) Enroll(ctx context.Context, slot int, label string) EnrollOutcome {
	if !s.validSlot(slot) {
		return EnrollOutcome{StatusCode: CodeBadLocation}
	}

	token, code := s.waitForFinger(ctx)
	if code != CodeOK {
		return EnrollOutcome{StatusCode: code}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Template{Name: label, Token: token}
	if err := s.mem.Store(ctx, slot, t); err != nil {
		return EnrollOutcome{StatusCode: CodeFlashError}
	}
	s.slots[slot] = t
	return EnrollOutcome{OK: true, StatusCode: CodeOK}
}

// waitForFinger polls for a placed finger until enrollTimeout.
func (s *Simulator) waitForFinger(ctx context.Context) (string, int) {
	deadline := time.Now().Add(s.enrollTimeout)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		connected, finger := s.connected, s.finger
		s.mu.Unlock()

		if !connected {
			return "", CodePacketError
		}
		if finger != "" {
			return finger, CodeOK
		}
		if time.Now().After(deadline) {
			return "", CodeNoFinger
		}

		select {
		case <-ctx.Done():
			return "", CodePacketError
		case <-ticker.C:
		}
	}
}

func (s *Simulator) validSlot(slot int) bool {
	return slot >= 1 && slot <= s.capacity
}

// Delete removes the template in slot.
func (s *Simulator) Delete(ctx context.Context, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSlotLocked(slot); err != nil {
		return err
	}
	if err := s.mem.Remove(ctx, slot); err != nil {
		return err
	}
	delete(s.slots, slot)
	return nil
}

// Rename changes the label of the template in slot.
func (s *Simulator) Rename(ctx context.Context, slot int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSlotLocked(slot); err != nil {
		return err
	}
	t := s.slots[slot]
	t.Name = label
	if err := s.mem.Store(ctx, slot, t); err != nil {
		return err
	}
	s.slots[slot] = t
	return nil
}

func (s *Simulator) checkSlotLocked(slot int) error {
	if !s.connected {
		return ErrNotConnected
	}
	if !s.validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if _, ok := s.slots[slot]; !ok {
		return fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	return nil
}

// DeleteAll empties the template memory.
func (s *Simulator) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if err := s.mem.RemoveAll(ctx); err != nil {
		return err
	}
	s.slots = make(map[int]Template)
	return nil
}

// List returns enrolled templates ordered by slot.
func (s *Simulator) List(_ context.Context) ([]Fingerprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrNotConnected
	}
	return sortedFingerprints(s.slots), nil
}

// PairingMarker reads the marker from memory. It returns "" while marker
// reads are set to fail.
func (s *Simulator) PairingMarker(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return "", ErrNotConnected
	}
	if s.markerReadFails {
		return "", nil
	}
	return s.mem.Marker(ctx)
}

// SetPairingMarker stores marker unless rejection is switched on.
func (s *Simulator) SetPairingMarker(ctx context.Context, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if s.rejectMarker {
		return ErrMarkerRejected
	}
	return s.mem.SetMarker(ctx, marker)
}

// SetIgnoreTouchRing records the touch-ring setting.
func (s *Simulator) SetIgnoreTouchRing(ignore bool) {
	s.mu.Lock()
	s.ignoreTouchRing = ignore
	s.mu.Unlock()
}

// IgnoreTouchRing returns the last touch-ring setting.
func (s *Simulator) IgnoreTouchRing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ignoreTouchRing
}

// SetLED records the LED state.
func (s *Simulator) SetLED(state LEDState) {
	s.mu.Lock()
	s.led = state
	s.mu.Unlock()
}

// LED returns the last LED state.
func (s *Simulator) LED() LEDState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.led
}

// PlaceFinger puts a finger identified by token on the sensor.
func (s *Simulator) PlaceFinger(token string) {
	s.mu.Lock()
	s.finger = token
	s.mu.Unlock()
}

// LiftFinger removes the finger.
func (s *Simulator) LiftFinger() {
	s.PlaceFinger("")
}

// FailNextScan makes the next Scan report ScanError with code.
func (s *Simulator) FailNextScan(code int) {
	s.mu.Lock()
	s.nextScanFault = code
	s.mu.Unlock()
}

// SetMarkerReadFailure makes PairingMarker return "" while on.
func (s *Simulator) SetMarkerReadFailure(fail bool) {
	s.mu.Lock()
	s.markerReadFails = fail
	s.mu.Unlock()
}

// SetMarkerRejection makes SetPairingMarker refuse writes while on.
func (s *Simulator) SetMarkerRejection(reject bool) {
	s.mu.Lock()
	s.rejectMarker = reject
	s.mu.Unlock()
}

// OverwriteMarker replaces the stored marker directly, as a swapped-in
// sensor with a different marker would present.
func (s *Simulator) OverwriteMarker(ctx context.Context, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.SetMarker(ctx, marker)
}
