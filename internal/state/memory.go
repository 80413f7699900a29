// ABOUTME: In-memory Storage implementation used as the default/dev backend
// ABOUTME: Mutex-guarded map with deep-copied bags; no durability across restarts

package state

import (
	"context"
	"sync"
)

// MemoryStorage is a volatile Storage implementation backed by a process
// local map. It is safe for concurrent use and suited to tests and
// single-process deployments; nothing survives a restart.
//
// Bags are deep-copied on the way in and out so callers can never mutate
// stored state except through Write.
type MemoryStorage struct {
	mu   sync.RWMutex
	bags map[string]PropertyBag
}

// NewMemoryStorage constructs an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{bags: make(map[string]PropertyBag)}
}

// Read returns copies of the stored bags for the requested keys.
func (m *MemoryStorage) Read(_ context.Context, keys []string) (map[string]PropertyBag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]PropertyBag, len(keys))
	for _, key := range keys {
		if bag, ok := m.bags[key]; ok {
			out[key] = bag.Clone()
		}
	}
	return out, nil
}

// Write stores copies of the given bags. Last writer wins per key.
func (m *MemoryStorage) Write(_ context.Context, changes map[string]PropertyBag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, bag := range changes {
		m.bags[key] = bag.Clone()
	}
	return nil
}

// Delete removes the bags for the given keys. Unknown keys are a no-op.
func (m *MemoryStorage) Delete(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.bags, key)
	}
	return nil
}

// Len reports the number of stored scopes. Test helper.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bags)
}
