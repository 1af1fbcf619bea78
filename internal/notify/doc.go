// Package notify fans operator-facing messages out to every sink.
//
// Notify stamps a message with the wall-clock time, keeps it in a bounded
// LogHistory, pushes the rendered history to live subscribers on the
// "message" channel, and publishes the raw text to <root>/lastLogMessage.
// Each sink is best-effort: a missing or failing sink never stops the
// others and never surfaces as an error to the caller.
//
// NotifyFingerlist pushes a fingerprint list snapshot on the "fingerlist"
// channel so open admin pages refresh without polling.
package notify
