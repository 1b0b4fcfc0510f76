package database

import (
	"context"
	"sync"
)

// MemoryStore - process local key-value store, nothing survives a restart
type MemoryStore struct {
	mtx  sync.RWMutex
	data map[string]string
}

// NewMemoryStore - MemoryStore constructor
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

// Get - returns the value stored under the key
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set - stores the value under the key
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.data[key] = value
	return nil
}

// Delete - removes the key
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.data, key)
	return nil
}

// Close - nothing to release
func (m *MemoryStore) Close() error {
	return nil
}
