package doorbell

import (
	"sync"
	"sync/atomic"
)

// SimulatedInput is a button pressed and released in software.
type SimulatedInput struct {
	pressed atomic.Bool
}

// Pressed returns the simulated level. It never fails.
func (s *SimulatedInput) Pressed() (bool, error) {
	return s.pressed.Load(), nil
}

// Set presses or releases the button.
func (s *SimulatedInput) Set(pressed bool) {
	s.pressed.Store(pressed)
}

// SimulatedBuzzer records what it was asked to play.
type SimulatedBuzzer struct {
	mu      sync.Mutex
	playing bool
	last    []Tone
	plays   int
}

// Play records pattern as playing.
func (s *SimulatedBuzzer) Play(pattern []Tone) {
	s.mu.Lock()
	s.playing = true
	s.last = append([]Tone(nil), pattern...)
	s.plays++
	s.mu.Unlock()
}

// Stop records the buzzer as silent.
func (s *SimulatedBuzzer) Stop() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Playing reports whether a pattern was started and not stopped.
func (s *SimulatedBuzzer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Plays returns how many patterns were started.
func (s *SimulatedBuzzer) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

// LastPattern returns the most recently started pattern.
func (s *SimulatedBuzzer) LastPattern() []Tone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Tone(nil), s.last...)
}
