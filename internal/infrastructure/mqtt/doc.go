// Package mqtt connects the doorbell to its home-automation message bus.
//
// All topics hang off a configurable root (default "fingerprintDoorbell"):
//
//	<root>/lastLogMessage   every notification, and the last will
//	<root>/matchId          slot id of a granted match, "-1" otherwise
//	<root>/matchName        label of a granted match, "" otherwise
//	<root>/matchConfidence  sensor confidence, "-1" otherwise
//	<root>/ring             "on" / "off" doorbell edges
//	<root>/ignoreTouchRing  inbound "on" / "off" command
//
// Connection behaviour:
//   - The first connection is retried with exponential backoff between
//     reconnect.initial_delay and reconnect.max_delay.
//   - A broker that refuses the credentials (CONNACK codes 4 and 5) stops
//     the retries; the operator has to fix the settings and restart.
//   - After the first connection paho's auto-reconnect takes over and
//     subscriptions are restored on every reconnect.
//
// Usage:
//
//	client := mqtt.New(cfg.MQTT)
//	err := client.ConnectWithRetry(ctx, func(err error, next time.Duration) {
//	    logger.Warn("mqtt connect failed", "error", err, "retry_in", next)
//	})
//	if errors.Is(err, mqtt.ErrNotAuthorized) {
//	    // bad credentials, give up
//	}
//	defer client.Close()
package mqtt
