package doorbell

import "errors"

var (
	// ErrInvalidLevel is returned when a GPIO value file holds something
	// other than 0 or 1.
	ErrInvalidLevel = errors.New("doorbell: invalid GPIO level")

	// ErrInvalidFrequency is returned for a tone at or below 0 Hz.
	ErrInvalidFrequency = errors.New("doorbell: tone frequency must be positive")
)
