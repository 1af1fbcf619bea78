// Package influxdb records doorbell telemetry in InfluxDB v2.
//
// Three measurements are written, all tagged with the device hostname:
//
//	doorbell_scan     result, published tags; slot_id, confidence fields
//	doorbell_ring     pressed field on every button edge
//	doorbell_pairing  valid field whenever the pairing state is checked or changed
//
// Writes are non-blocking and batched by the client library; failures are
// reported through SetOnError. Telemetry is optional: Connect returns
// ErrDisabled when influxdb.enabled is false and callers carry on without it.
package influxdb
