package sensor

import "errors"

var (
	// ErrNotConnected is returned when the sensor does not respond.
	ErrNotConnected = errors.New("sensor: not connected")

	// ErrWrongPIN is returned by Connect when the sensor password is wrong.
	ErrWrongPIN = errors.New("sensor: wrong PIN")

	// ErrInvalidSlot is returned for a slot outside the sensor's memory.
	ErrInvalidSlot = errors.New("sensor: invalid slot")

	// ErrSlotEmpty is returned when renaming or deleting an unused slot.
	ErrSlotEmpty = errors.New("sensor: slot is empty")

	// ErrMarkerRejected is returned when the sensor refuses a pairing marker.
	ErrMarkerRejected = errors.New("sensor: pairing marker rejected")
)
