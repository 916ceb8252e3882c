package store

import (
	"context"
	"sync"
)

// Memory is an in-process token store with the same contract as [Store]. It is
// the degrade target when Redis is unreachable: the session survives for the
// process lifetime but not beyond it.
type Memory struct {
	mu  sync.Mutex
	set *TokenSet
}

// NewMemory creates an empty in-memory token store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save stores a copy of the complete set. Incomplete sets are rejected.
func (m *Memory) Save(_ context.Context, t *TokenSet) error {
	if !t.Complete() {
		return ErrIncompleteTokenSet
	}
	copied := *t
	m.mu.Lock()
	m.set = &copied
	m.mu.Unlock()
	return nil
}

// Load returns a copy of the stored set, or (nil, nil) when empty.
func (m *Memory) Load(_ context.Context) (*TokenSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set == nil {
		return nil, nil
	}
	copied := *m.set
	return &copied, nil
}

// Clear drops the stored set. Idempotent.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.set = nil
	m.mu.Unlock()
	return nil
}
