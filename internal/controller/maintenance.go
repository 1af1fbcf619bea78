package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
)

// Administrative notifications.
const (
	MsgDeletingAll       = "Deleting all fingerprints..."
	MsgDeleteAllFailed   = "Finger database could not be deleted."
	MsgFingerprintDelete = "Fingerprint %d deleted."
	MsgFingerprintRename = "Fingerprint %d renamed to '%s'."
	MsgFactoryReset      = "Factory reset initiated..."
	MsgSettingsResetFail = "App settings could not be deleted."
)

// Fingerprint change actions passed to Recorder.
const (
	ActionDelete    = "delete"
	ActionRename    = "rename"
	ActionDeleteAll = "delete_all"
)

// requestMaintenance raises the maintenance flag and waits until the loop
// has parked. On failure the flag is lowered again.
func (c *Controller) requestMaintenance(ctx context.Context) error {
	if err := c.Handle(MaintenanceRequested{}); err != nil {
		return err
	}

	deadline := time.NewTimer(c.timing.MaintenanceTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(c.timing.MaintenancePoll)
	defer poll.Stop()

	for {
		if c.Mode() == Maintenance {
			return nil
		}

		select {
		case <-ctx.Done():
			c.releaseMaintenance()
			return fmt.Errorf("%w: %w", ErrMaintenanceTimeout, ctx.Err())
		case <-deadline.C:
			c.releaseMaintenance()
			c.logger.Warn("maintenance mode not granted in time", "timeout", c.timing.MaintenanceTimeout)
			return ErrMaintenanceTimeout
		case <-poll.C:
		}
	}
}

func (c *Controller) releaseMaintenance() {
	_ = c.Handle(MaintenanceReleased{})
}

// WithMaintenance runs fn with exclusive use of the sensor.
//
// Callers are served one at a time. Each waits for the loop to enter
// Maintenance, runs fn, and returns the loop to Scanning.
//
// Returns:
//   - error: ErrMaintenanceTimeout if access was not granted (fn did not
//     run), otherwise the error from fn
func (c *Controller) WithMaintenance(ctx context.Context, fn func(dev sensor.Device) error) error {
	c.lease.Lock()
	defer c.lease.Unlock()

	if err := c.requestMaintenance(ctx); err != nil {
		return err
	}
	defer c.releaseMaintenance()

	return fn(c.device)
}

// DeleteFingerprint removes the template in slot.
func (c *Controller) DeleteFingerprint(ctx context.Context, slot int) error {
	if !ValidSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}

	return c.WithMaintenance(ctx, func(dev sensor.Device) error {
		if err := dev.Delete(ctx, slot); err != nil {
			return fmt.Errorf("deleting fingerprint %d: %w", slot, err)
		}
		c.recordChange(ActionDelete, slot, "")
		c.notifier.Notify(fmt.Sprintf(MsgFingerprintDelete, slot))
		c.refreshFingerprints(ctx)
		return nil
	})
}

// RenameFingerprint changes the label of the template in slot.
func (c *Controller) RenameFingerprint(ctx context.Context, slot int, label string) error {
	if !ValidSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}

	return c.WithMaintenance(ctx, func(dev sensor.Device) error {
		if err := dev.Rename(ctx, slot, label); err != nil {
			return fmt.Errorf("renaming fingerprint %d: %w", slot, err)
		}
		c.recordChange(ActionRename, slot, label)
		c.notifier.Notify(fmt.Sprintf(MsgFingerprintRename, slot, label))
		c.refreshFingerprints(ctx)
		return nil
	})
}

// DeleteAllFingerprints empties the sensor's template memory.
func (c *Controller) DeleteAllFingerprints(ctx context.Context) error {
	return c.WithMaintenance(ctx, func(dev sensor.Device) error {
		c.notifier.Notify(MsgDeletingAll)
		if err := dev.DeleteAll(ctx); err != nil {
			c.notifier.Notify(MsgDeleteAllFailed)
			return fmt.Errorf("deleting all fingerprints: %w", err)
		}
		c.recordChange(ActionDeleteAll, 0, "")
		c.refreshFingerprints(ctx)
		return nil
	})
}

// FactoryReset erases every template and then calls clearSettings. A
// failing step is notified and the next one still runs; the caller is
// expected to restart afterwards.
func (c *Controller) FactoryReset(ctx context.Context, clearSettings func(context.Context) error) error {
	c.notifier.Notify(MsgFactoryReset)

	var errs []error
	err := c.WithMaintenance(ctx, func(dev sensor.Device) error {
		if err := dev.DeleteAll(ctx); err != nil {
			return fmt.Errorf("deleting all fingerprints: %w", err)
		}
		c.recordChange(ActionDeleteAll, 0, "")
		c.refreshFingerprints(ctx)
		return nil
	})
	if err != nil {
		c.notifier.Notify(MsgDeleteAllFailed)
		errs = append(errs, err)
	}

	if err := clearSettings(ctx); err != nil {
		c.notifier.Notify(MsgSettingsResetFail)
		errs = append(errs, fmt.Errorf("clearing settings: %w", err))
	}
	return errors.Join(errs...)
}

// Repair pairs the doorbell with the attached sensor anew.
//
// Returns:
//   - bool: whether pairing succeeded
//   - error: ErrMaintenanceTimeout if the sensor could not be borrowed
func (c *Controller) Repair(ctx context.Context) (bool, error) {
	var ok bool
	err := c.WithMaintenance(ctx, func(sensor.Device) error {
		ok = c.pairing.Pair(ctx)
		return nil
	})
	return ok, err
}

func (c *Controller) recordChange(action string, slot int, label string) {
	for _, r := range c.recorders {
		r.RecordFingerprintChange(action, slot, label)
	}
}
