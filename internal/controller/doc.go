// Package controller runs the doorbell's control loop.
//
// The Controller owns the fingerprint sensor. Each tick it does the work
// of the current operating mode (scan for a finger, or run one queued
// enrollment), grants maintenance if it was requested, and samples the
// doorbell button.
//
// Operating modes:
//
//	Scanning ──EnrollRequested──▶ Enrolling ──(one attempt)──▶ Scanning
//	Scanning|Enrolling ──maintenance flag──▶ Maintenance ──release──▶ Scanning
//
// HTTP handlers and message bus callbacks never touch the sensor
// directly. They submit commands through Handle, or borrow the sensor with
// WithMaintenance, which waits until the loop has parked in Maintenance.
//
// Match events are only published while the sensor pairing is valid.
package controller
