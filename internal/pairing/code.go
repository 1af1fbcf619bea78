package pairing

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"

	"github.com/nerrad567/gray-logic-doorbell/internal/notify"
)

// CodeBytes is the number of hash bytes kept in a pairing code. The code
// is hex encoded, so it is twice as many characters long.
const CodeBytes = 16

// Markers hashed in place of an entropy source that could not be read.
const (
	noRandom = "no random"
	noUptime = "no uptime"
)

// GenerateCode returns a new pairing code.
//
// The code hashes a hardware random value, the host uptime, the wall clock
// and the message bus credentials. A source that fails is replaced by a
// fixed marker; generation itself never fails.
func (v *Validator) GenerateCode() string {
	h := blake3.New()

	var random [8]byte
	if _, err := io.ReadFull(v.random, random[:]); err != nil {
		v.logger.Warn("pairing code: random source unavailable", "error", err)
		_, _ = h.WriteString(noRandom)
	} else {
		_, _ = h.Write(random[:])
	}

	if uptime, err := v.uptime(); err != nil {
		v.logger.Warn("pairing code: uptime unavailable", "error", err)
		_, _ = h.WriteString(noUptime)
	} else {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uptime)
		_, _ = h.Write(buf[:])
	}

	_, _ = h.WriteString(notify.Timestamp(v.clock))
	_, _ = h.WriteString(v.username)
	_, _ = h.WriteString(v.password)

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:CodeBytes])
}
