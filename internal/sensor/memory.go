package sensor

import (
	"context"
	"sort"
	"sync"
)

// Template is a stored fingerprint template. The simulator uses an opaque
// token in place of real minutiae.
type Template struct {
	Name  string
	Token string
}

// Memory is the non-volatile storage of a simulated sensor.
type Memory interface {
	Slots(ctx context.Context) (map[int]Template, error)
	Store(ctx context.Context, slot int, t Template) error
	Remove(ctx context.Context, slot int) error
	RemoveAll(ctx context.Context) error
	Marker(ctx context.Context) (string, error)
	SetMarker(ctx context.Context, marker string) error
}

// MapMemory is an in-process Memory.
type MapMemory struct {
	mu     sync.Mutex
	slots  map[int]Template
	marker string
}

// NewMapMemory returns an empty in-process Memory.
func NewMapMemory() *MapMemory {
	return &MapMemory{slots: make(map[int]Template)}
}

func (m *MapMemory) Slots(context.Context) (map[int]Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]Template, len(m.slots))
	for k, v := range m.slots {
		out[k] = v
	}
	return out, nil
}

func (m *MapMemory) Store(_ context.Context, slot int, t Template) error {
	m.mu.Lock()
	m.slots[slot] = t
	m.mu.Unlock()
	return nil
}

func (m *MapMemory) Remove(_ context.Context, slot int) error {
	m.mu.Lock()
	delete(m.slots, slot)
	m.mu.Unlock()
	return nil
}

func (m *MapMemory) RemoveAll(context.Context) error {
	m.mu.Lock()
	m.slots = make(map[int]Template)
	m.mu.Unlock()
	return nil
}

func (m *MapMemory) Marker(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marker, nil
}

func (m *MapMemory) SetMarker(_ context.Context, marker string) error {
	m.mu.Lock()
	m.marker = marker
	m.mu.Unlock()
	return nil
}

// sortedFingerprints turns a slot map into a list ordered by slot.
func sortedFingerprints(slots map[int]Template) []Fingerprint {
	list := make([]Fingerprint, 0, len(slots))
	for id, t := range slots {
		list = append(list, Fingerprint{ID: id, Name: t.Name})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
