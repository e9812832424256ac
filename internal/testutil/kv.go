package testutil

import (
	"context"
	"sync"
)

// MemoryKV is an in-memory document store for tests.
//
// GetErr and PutErr, when set, are returned by the next and every
// following call until cleared.
type MemoryKV struct {
	mu     sync.Mutex
	docs   map[string][]byte
	puts   int
	GetErr error
	PutErr error
}

// NewMemoryKV creates an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{docs: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	doc, ok := m.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), doc...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.docs[key] = append([]byte(nil), doc...)
	m.puts++
	return nil
}

// Set stores a raw document without counting it as a Put.
func (m *MemoryKV) Set(key string, doc []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]byte(nil), doc...)
}

// Puts returns the number of successful Put calls.
func (m *MemoryKV) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
