// Package api implements the administrative HTTP API and WebSocket server
// of the fingerprint doorbell.
//
// This package provides:
//   - REST endpoints for fingerprint administration, pairing, settings
//     and system actions
//   - WebSocket hub streaming notifications, the fingerprint list and status
//   - JWT bearer authentication for everything but health, metrics and login
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - Simulator routes when the simulated sensor driver is active
//
// # Architecture
//
// Handlers never touch the sensor directly. Enrollment is queued on the
// controller; every other sensor operation borrows the sensor through
// controller maintenance mode, so a request can fail with 503 when the
// control loop does not yield in time.
//
// # Graceful Degradation
//
// The server operates without MQTT. Without an admin password hash the
// protected routes answer 503 so the doorbell keeps ringing and scanning.
package api
