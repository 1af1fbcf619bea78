// Package sensor defines the fingerprint sensor the doorbell drives and a
// simulated implementation of it.
//
// The Device interface is everything the control loop and the admin API
// need: scanning, enrolling, template administration, the pairing marker
// stored on the sensor, and the touch-ring/LED controls.
//
// Simulator keeps its template memory and pairing marker in a Memory,
// either in process (NewMapMemory) or in the sensor_slots and
// sensor_marker tables (NewSQLiteMemory), so a simulated doorbell
// survives restarts the way a real sensor keeps its flash.
package sensor
