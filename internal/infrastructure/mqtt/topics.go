package mqtt

// Topics builds the doorbell's MQTT topic names under a root topic.
//
//	t := mqtt.Topics{Root: "fingerprintDoorbell"}
//	t.Ring() // "fingerprintDoorbell/ring"
type Topics struct {
	Root string
}

func (t Topics) join(suffix string) string {
	return t.Root + "/" + suffix
}

// LastLogMessage carries every notification and the last will.
func (t Topics) LastLogMessage() string { return t.join("lastLogMessage") }

// MatchID carries the slot id of a granted match.
func (t Topics) MatchID() string { return t.join("matchId") }

// MatchName carries the label of a granted match.
func (t Topics) MatchName() string { return t.join("matchName") }

// MatchConfidence carries the sensor's confidence for a granted match.
func (t Topics) MatchConfidence() string { return t.join("matchConfidence") }

// Ring carries "on"/"off" doorbell edges.
func (t Topics) Ring() string { return t.join("ring") }

// IgnoreTouchRing is subscribed to for the inbound touch-ring command.
func (t Topics) IgnoreTouchRing() string { return t.join("ignoreTouchRing") }
