// Package pairing binds the doorbell to one physical fingerprint sensor.
//
// On first use the validator writes a freshly generated code to the sensor
// and persists the same code in the settings store. Every later check
// compares the two. A sensor carrying a different code is treated as
// substituted: pairing is marked invalid and stays invalid until an
// operator re-pairs, so match events are never published for a sensor the
// doorbell has not been introduced to.
package pairing
