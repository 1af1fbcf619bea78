package doorbell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SysfsInput reads a GPIO value file such as
// /sys/class/gpio/gpio14/value.
type SysfsInput struct {
	path      string
	activeLow bool
}

// NewSysfsInput creates an input reading path. With activeLow a level of 0
// means pressed, as with a button wired to ground against a pull-up.
func NewSysfsInput(path string, activeLow bool) *SysfsInput {
	return &SysfsInput{path: path, activeLow: activeLow}
}

// Pressed reads the current level.
func (s *SysfsInput) Pressed() (bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", s.path, err)
	}

	var high bool
	switch strings.TrimSpace(string(raw)) {
	case "1":
		high = true
	case "0":
		high = false
	default:
		return false, fmt.Errorf("%w: %q in %s", ErrInvalidLevel, strings.TrimSpace(string(raw)), s.path)
	}
	return high != s.activeLow, nil
}

// PWMBuzzer drives a buzzer from a sysfs PWM channel directory such as
// /sys/class/pwm/pwmchip0/pwm0. The channel must already be exported.
type PWMBuzzer struct {
	dir    string
	logger Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPWMBuzzer creates a buzzer on the channel in dir.
func NewPWMBuzzer(dir string, logger Logger) *PWMBuzzer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &PWMBuzzer{dir: dir, logger: logger}
}

// Play starts pattern in the background, replacing any pattern in
// progress.
func (b *PWMBuzzer) Play(pattern []Tone) {
	b.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	b.mu.Lock()
	b.cancel = cancel
	b.done = done
	b.mu.Unlock()

	go func() {
		defer close(done)
		defer b.silence()

		for _, t := range pattern {
			if err := b.tone(t.Frequency); err != nil {
				b.logger.Warn("buzzer tone failed", "frequency", t.Frequency, "error", err)
				return
			}
			timer := time.NewTimer(t.Duration)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// Stop silences the buzzer and waits for the pattern goroutine to exit.
func (b *PWMBuzzer) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// tone sets a 50% duty square wave at frequency Hz.
func (b *PWMBuzzer) tone(frequency int) error {
	if frequency <= 0 {
		return ErrInvalidFrequency
	}
	period := int64(time.Second) / int64(frequency)

	// duty_cycle must never exceed period, so clear it before moving
	// period down.
	steps := []struct {
		file  string
		value int64
	}{
		{"enable", 0},
		{"duty_cycle", 0},
		{"period", period},
		{"duty_cycle", period / 2},
		{"enable", 1},
	}
	for _, s := range steps {
		if err := b.write(s.file, s.value); err != nil {
			return err
		}
	}
	return nil
}

func (b *PWMBuzzer) silence() {
	if err := b.write("enable", 0); err != nil {
		b.logger.Warn("silencing buzzer failed", "error", err)
	}
}

func (b *PWMBuzzer) write(file string, value int64) error {
	path := filepath.Join(b.dir, file)
	if err := os.WriteFile(path, []byte(strconv.FormatInt(value, 10)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
