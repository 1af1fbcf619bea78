package controller

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
)

// MsgEnrollSuccessful is sent after a template was stored.
const MsgEnrollSuccessful = "Enrollment successfull. You can now use your new finger for scanning."

// ValidSlot reports whether slot can hold a template.
func ValidSlot(slot int) bool {
	return slot >= 1 && slot <= sensor.MaxSlot
}

// enroll runs one enrollment attempt.
func (c *Controller) enroll(ctx context.Context, req EnrollRequested) {
	if !ValidSlot(req.Slot) {
		c.notifier.Notify(fmt.Sprintf("Invalid memory slot id '%d'", req.Slot))
		c.logger.Warn("enrollment rejected", "slot", req.Slot)
		return
	}

	var outcome sensor.EnrollOutcome
	if c.device.Connected() {
		outcome = c.device.Enroll(ctx, req.Slot, req.Label)
	} else {
		outcome = sensor.EnrollOutcome{StatusCode: sensor.CodePacketError}
	}

	for _, r := range c.recorders {
		r.RecordEnrollment(req.Slot, req.Label, outcome.OK)
	}

	if !outcome.OK {
		c.notifier.Notify(fmt.Sprintf("Enrollment failed. (Code %d)", outcome.StatusCode))
		c.logger.Warn("enrollment failed", "slot", req.Slot, "code", outcome.StatusCode)
		return
	}

	c.logger.Info("enrollment succeeded", "slot", req.Slot, "name", req.Label)
	c.notifier.Notify(MsgEnrollSuccessful)
	c.refreshFingerprints(ctx)
}
