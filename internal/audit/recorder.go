package audit

import (
	"context"
	"time"
)

// writeTimeout bounds one audit insert.
const writeTimeout = 2 * time.Second

// Logger is the subset of logging.Logger the recorder needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Recorder turns doorbell events into audit entries. Its method set
// matches the telemetry client so both can be attached as sinks to the
// controller, the pairing validator and the doorbell detector.
//
// Write failures are logged and dropped.
type Recorder struct {
	repo   Repository
	logger Logger
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, logger: logger}
}

// RecordScan records a scan outcome. result is a sensor.ScanResult name.
func (r *Recorder) RecordScan(result string, slotID, confidence int, published bool) {
	var action string
	switch result {
	case "match":
		action = ActionMatchWithheld
		if published {
			action = ActionMatchGranted
		}
	case "no_match":
		action = ActionNoMatch
	case "error":
		action = ActionScanError
	default:
		return
	}

	e := &Event{Action: action, Source: SourceSensor}
	if slotID > 0 {
		e.SlotID = slotID
		e.Details = map[string]any{"confidence": confidence}
	}
	r.create(e)
}

// RecordEnrollment records one enrollment attempt.
func (r *Recorder) RecordEnrollment(slot int, label string, ok bool) {
	action := ActionEnroll
	if !ok {
		action = ActionEnrollFailed
	}
	r.create(&Event{Action: action, SlotID: slot, Name: label, Source: SourceAdmin})
}

// RecordFingerprintChange records a delete, rename or delete_all.
func (r *Recorder) RecordFingerprintChange(action string, slot int, label string) {
	r.create(&Event{Action: action, SlotID: slot, Name: label, Source: SourceAdmin})
}

// RecordPairing records a pairing decision.
func (r *Recorder) RecordPairing(valid bool) {
	action := ActionPairingInvalid
	if valid {
		action = ActionPairingValid
	}
	r.create(&Event{Action: action, Source: SourceSensor})
}

// RecordRing records a doorbell press. Releases are not audited.
func (r *Recorder) RecordRing(pressed bool) {
	if !pressed {
		return
	}
	r.create(&Event{Action: ActionRing, Source: SourceDoorbell})
}

func (r *Recorder) create(e *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, e); err != nil {
		r.logger.Warn("audit event not recorded", "action", e.Action, "error", err)
	}
}
