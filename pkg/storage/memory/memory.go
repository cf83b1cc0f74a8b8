package memory

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory ObjectStore for tests and local development.
// All data is lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
	closed  bool
}

// NewMemoryStore creates an empty in-memory object store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Put writes an object under key
func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("object store is closed")
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = cp
	m.types[key] = contentType
	return nil
}

// Exists reports whether an object is present under key
func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, fmt.Errorf("object store is closed")
	}

	_, ok := m.objects[key]
	return ok, nil
}

// Get returns a copy of the stored object and its content type (for tests)
func (m *MemoryStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, m.types[key], true
}

// Len returns the number of stored objects
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// HealthCheck reports healthy unless the store has been closed
func (m *MemoryStore) HealthCheck(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("object store is closed")
	}
	return nil
}

// Close shuts the store down. Idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
