package cache

import "sync/atomic"

// Memory is the in-process cache tier: a single atomic slot holding the
// current entry. Reads are lock-free; the read-check-then-write sequences
// around Store and Clear are serialized by the Manager's mutex.
type Memory struct {
	current atomic.Pointer[Entry]
}

// NewMemory creates an empty memory tier.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the current entry, or nil when the tier is empty.
func (m *Memory) Load() *Entry {
	return m.current.Load()
}

// Store replaces the current entry wholesale.
func (m *Memory) Store(e *Entry) {
	m.current.Store(e)
}

// Clear drops the current entry.
func (m *Memory) Clear() {
	m.current.Store(nil)
}
