// Package settings persists the doorbell's operator settings in SQLite.
//
// Values are strings grouped by namespace. Two namespaces are in use:
//
//	appSettings      mqttServer, mqttUsername, mqttPassword, mqttRootTopic,
//	                 ntpServer, sensorPin, pairingCode, pairingValid
//	networkSettings  hostname
//
// A namespace is opened either read-only or read-write; writes through a
// read-only handle fail with ErrReadOnly. Missing keys read back as the
// caller's default. Manager layers typed AppSettings and NetworkSettings
// records on top of the Store and owns the persisted pairing state.
package settings
