package controller

import "errors"

// Domain errors for the controller package.
var (
	// ErrBusy is returned when an enrollment is requested outside Scanning.
	ErrBusy = errors.New("controller: busy, not in scanning mode")

	// ErrMaintenanceTimeout is returned when the loop did not enter
	// Maintenance in time. The sensor must not be used.
	ErrMaintenanceTimeout = errors.New("controller: timed out waiting for maintenance mode")

	// ErrUnknownCommand is returned by Handle for an unrecognised command.
	ErrUnknownCommand = errors.New("controller: unknown command")

	// ErrInvalidSlot is returned for a slot outside 1..sensor.MaxSlot.
	ErrInvalidSlot = errors.New("controller: invalid memory slot")
)
