package book

import (
	"context"
	"sync"
)

// MemoryStore is a bounded in-process book. Once full, the oldest entry is
// evicted first.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]int
	order   []string
	next    int
	max     int
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &MemoryStore{
		entries: make(map[string]int, maxEntries),
		order:   make([]string, 0, maxEntries),
		max:     maxEntries,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.entries[key]
	return col, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, col int) error {
	if !validColumn(col) {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		m.entries[key] = col
		return nil
	}
	if len(m.order) < m.max {
		m.order = append(m.order, key)
	} else {
		delete(m.entries, m.order[m.next])
		m.order[m.next] = key
		m.next = (m.next + 1) % m.max
	}
	m.entries[key] = col
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
