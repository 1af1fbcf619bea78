package sensor

import "context"

// MaxSlot is the highest template slot the doorbell enrolls into.
const MaxSlot = 200

// Confirmation codes reported by the sensor alongside failed operations.
const (
	CodeOK             = 0x00
	CodePacketError    = 0x01
	CodeNoFinger       = 0x02
	CodeImageFail      = 0x03
	CodeNotFound       = 0x09
	CodeEnrollMismatch = 0x0A
	CodeBadLocation    = 0x0B
	CodeFlashError     = 0x18
)

// ScanResult classifies one scan.
type ScanResult int

const (
	NoFinger ScanResult = iota
	MatchFound
	NoMatchFound
	ScanError
)

func (r ScanResult) String() string {
	switch r {
	case NoFinger:
		return "no_finger"
	case MatchFound:
		return "match"
	case NoMatchFound:
		return "no_match"
	case ScanError:
		return "error"
	default:
		return "unknown"
	}
}

// MatchOutcome is the result of one Scan. MatchID, MatchName and
// Confidence are only meaningful for MatchFound; StatusCode for
// NoMatchFound and ScanError.
type MatchOutcome struct {
	Result     ScanResult
	MatchID    int
	MatchName  string
	Confidence int
	StatusCode int
}

// EnrollOutcome is the result of one Enroll.
type EnrollOutcome struct {
	OK         bool
	StatusCode int
}

// Fingerprint is one enrolled template slot.
type Fingerprint struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// LEDState selects the sensor's ring LED pattern.
type LEDState int

const (
	LEDOff LEDState = iota
	LEDReady
	LEDError
)

// Device is a fingerprint sensor.
//
// Implementations are not required to be safe for concurrent use; the
// controller serialises all access.
type Device interface {
	// Connect opens the sensor with its PIN.
	Connect(ctx context.Context, pin string) error

	// Connected reports whether the last Connect succeeded.
	Connected() bool

	// Scan checks once for a finger and matches it.
	Scan(ctx context.Context) MatchOutcome

	// Enroll records a new template in slot.
	Enroll(ctx context.Context, slot int, label string) EnrollOutcome

	Delete(ctx context.Context, slot int) error
	Rename(ctx context.Context, slot int, label string) error
	DeleteAll(ctx context.Context) error
	List(ctx context.Context) ([]Fingerprint, error)

	// PairingMarker reads the marker stored on the sensor. An empty
	// string means nothing could be read.
	PairingMarker(ctx context.Context) (string, error)

	// SetPairingMarker stores marker on the sensor. A nil error means
	// the sensor accepted it.
	SetPairingMarker(ctx context.Context, marker string) error

	SetIgnoreTouchRing(ignore bool)
	SetLED(state LEDState)
}
