package controller

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
)

// Security notifications.
const (
	MsgMatchWithheld = "Security issue! Match was not sent by MQTT because of invalid sensor pairing! " +
		"This could potentially be an attack! If the sensor is new or has been replaced by you do a (re)pairing in settings page."

	MsgPairingInvalidAtBoot = "Security issue! Pairing with sensor is invalid. This could potentially be an attack! " +
		"If the sensor is new or has been replaced by you do a (re)pairing in settings page. " +
		"MQTT messages regarding matching fingerprints will not been sent until pairing is valid again."
)

// Payloads published when no finger is matched.
const (
	sentinelID         = "-1"
	sentinelName       = ""
	sentinelConfidence = "-1"
)

// scan runs one scan and returns the cooldown it calls for.
func (c *Controller) scan(ctx context.Context) time.Duration {
	match := c.device.Scan(ctx)

	c.mu.Lock()
	previous := c.previous
	c.previous = match
	topics := c.topics
	c.mu.Unlock()

	changed := match.Result != previous.Result

	switch match.Result {
	case sensor.NoFinger:
		if changed {
			c.logger.Debug("no finger")
			c.publishSentinels(topics)
		}
		return 0

	case sensor.MatchFound:
		c.notifier.Notify(fmt.Sprintf("Match Found: %d - %s with confidence of %d",
			match.MatchID, match.MatchName, match.Confidence))

		published := false
		if changed {
			if c.pairing.CheckValid(ctx) {
				c.publish(topics.MatchID, strconv.Itoa(match.MatchID))
				c.publish(topics.MatchName, match.MatchName)
				c.publish(topics.MatchConfidence, strconv.Itoa(match.Confidence))
				published = true
				c.logger.Info("match published", "slot", match.MatchID, "name", match.MatchName)
			} else {
				c.notifier.Notify(MsgMatchWithheld)
				c.logger.Warn("match withheld, sensor pairing invalid", "slot", match.MatchID)
			}
		}
		c.recordScan(match, published)
		return c.timing.MatchCooldown

	case sensor.NoMatchFound:
		c.notifier.Notify(fmt.Sprintf("No Match Found (Code %d)", match.StatusCode))
		c.recordScan(match, false)
		if changed {
			c.publishSentinels(topics)
			return 0
		}
		return c.timing.NoMatchCooldown

	case sensor.ScanError:
		c.notifier.Notify(fmt.Sprintf("ScanResult Error (Code %d)", match.StatusCode))
		c.recordScan(match, false)
		return 0
	}
	return 0
}

func (c *Controller) publishSentinels(topics Topics) {
	c.publish(topics.MatchID, sentinelID)
	c.publish(topics.MatchName, sentinelName)
	c.publish(topics.MatchConfidence, sentinelConfidence)
}

func (c *Controller) recordScan(match sensor.MatchOutcome, published bool) {
	slot, confidence := -1, -1
	if match.Result == sensor.MatchFound {
		slot, confidence = match.MatchID, match.Confidence
	}
	for _, r := range c.recorders {
		r.RecordScan(match.Result.String(), slot, confidence, published)
	}
}
