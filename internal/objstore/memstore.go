package objstore

import (
	"fmt"
	"sync"

	"github.com/mhalvorsen/anvilvcs/internal/objhash"
)

// MemStore is an in-memory Store, used by tests that don't need a
// filesystem (mirrors the teacher's cas.MemoryCAS).
type MemStore struct {
	mu   sync.RWMutex
	data map[objhash.Hash][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[objhash.Hash][]byte)}
}

// Put implements Store.
func (m *MemStore) Put(hash objhash.Hash, data []byte) error {
	if computed := objhash.HashBytes(data); computed != hash {
		return fmt.Errorf("objstore: hash mismatch: expected %s, computed %s", hash, computed)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[hash]; exists {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[hash] = cp
	return nil
}

// Get implements Store.
func (m *MemStore) Get(hash objhash.Hash) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[hash]
	if !ok {
		return nil, fmt.Errorf("objstore: object %s not found", hash)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Has implements Store.
func (m *MemStore) Has(hash objhash.Hash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok, nil
}

// Len returns the number of stored objects (test helper).
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
