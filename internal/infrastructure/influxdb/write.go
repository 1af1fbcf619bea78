package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementScan    = "doorbell_scan"
	MeasurementRing    = "doorbell_ring"
	MeasurementPairing = "doorbell_pairing"
	MeasurementEnroll  = "doorbell_enroll"
	MeasurementAdmin   = "doorbell_fingerprint_admin"
)

// RecordScan writes one scan outcome.
//
// Parameters:
//   - result: "match", "no_match" or "error"
//   - slotID: matched slot, or -1
//   - confidence: sensor confidence, or -1
//   - published: whether the match went out on the message bus
func (c *Client) RecordScan(result string, slotID, confidence int, published bool) {
	c.write(MeasurementScan,
		map[string]string{
			"result":    result,
			"published": strconv.FormatBool(published),
		},
		map[string]any{
			"slot_id":    slotID,
			"confidence": confidence,
		},
	)
}

// RecordRing writes one doorbell button edge.
func (c *Client) RecordRing(pressed bool) {
	c.write(MeasurementRing, nil, map[string]any{"pressed": pressed})
}

// RecordPairing writes the current pairing validity.
func (c *Client) RecordPairing(valid bool) {
	c.write(MeasurementPairing, nil, map[string]any{"valid": valid})
}

// RecordEnrollment writes one enrollment attempt.
func (c *Client) RecordEnrollment(slot int, label string, ok bool) {
	c.write(MeasurementEnroll,
		map[string]string{"ok": strconv.FormatBool(ok)},
		map[string]any{"slot_id": slot, "name": label},
	)
}

// RecordFingerprintChange writes one administrative template change.
// Action is "delete", "rename" or "delete_all"; slot is 0 for delete_all.
func (c *Client) RecordFingerprintChange(action string, slot int, label string) {
	c.write(MeasurementAdmin,
		map[string]string{"action": action},
		map[string]any{"slot_id": slot, "name": label},
	)
}

func (c *Client) write(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}

	all := map[string]string{"device": c.device}
	for k, v := range tags {
		all[k] = v
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, all, fields, time.Now()))
}
