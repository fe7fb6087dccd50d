package objectstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory ObjectStore used by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ ObjectStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put writes the blob under the given key.
func (m *MemoryStore) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := make([]byte, len(body))
	copy(clone, body)
	m.objects[key] = clone
	return nil
}

// Get reads the blob stored under the given key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("objectstore: key not found: %s", key)
	}
	clone := make([]byte, len(data))
	copy(clone, data)
	return clone, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Len returns the number of stored objects. Used by tests to assert
// idempotent writes.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
