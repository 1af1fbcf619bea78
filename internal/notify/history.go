package notify

import (
	"strings"
	"sync"
)

// LineBreak separates rendered history entries.
const LineBreak = "<br>"

// LogHistory keeps the most recent messages, newest first.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type LogHistory struct {
	mu      sync.RWMutex
	entries []string
	size    int
}

// NewLogHistory creates a history holding at most size entries. Sizes
// below one are treated as one.
func NewLogHistory(size int) *LogHistory {
	if size < 1 {
		size = 1
	}
	return &LogHistory{entries: make([]string, 0, size), size: size}
}

// Add inserts entry as the newest, evicting the oldest at capacity. It
// returns the history as rendered right after the insert.
func (h *LogHistory) Add(entry string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == h.size {
		h.entries = h.entries[:h.size-1]
	}
	h.entries = append(h.entries, "")
	copy(h.entries[1:], h.entries)
	h.entries[0] = entry
	return h.render()
}

// Entries returns a copy of the history, newest first.
func (h *LogHistory) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.entries...)
}

// Len returns the number of stored entries.
func (h *LogHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Render returns the history newest first, each entry followed by a
// line break.
func (h *LogHistory) Render() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.render()
}

func (h *LogHistory) render() string {
	var b strings.Builder
	for _, e := range h.entries {
		if e == "" {
			continue
		}
		b.WriteString(e)
		b.WriteString(LineBreak)
	}
	return b.String()
}
