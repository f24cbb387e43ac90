// Package store persists catalog snapshots for sessions that outlive the
// process.
//
// The scanning core never calls the store itself: persistence is a
// consumer of catalog snapshots, wired in by the embedding application.
// MemStore is the no-op-grade stub the core is tested against; the
// sqlite store backs the offline tools.
package store

import (
	"sort"
	"sync"

	"github.com/ilpeppino/scanium-sub009/internal/catalog"
)

// ItemStore is the durable-store shape consumed by embedders.
type ItemStore interface {
	// SaveItem inserts or updates one item.
	SaveItem(item catalog.ScannedItem) error
	// DeleteItem removes one item; unknown IDs are not an error.
	DeleteItem(id string) error
	// LoadItems returns all items in first-save order.
	LoadItems() ([]catalog.ScannedItem, error)
	// Clear drops every stored item.
	Clear() error
}

// MemStore is an in-memory ItemStore. It never fails.
type MemStore struct {
	mu    sync.Mutex
	items map[string]catalog.ScannedItem
	seq   map[string]int
	next  int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		items: make(map[string]catalog.ScannedItem),
		seq:   make(map[string]int),
	}
}

// SaveItem inserts or updates one item.
func (m *MemStore) SaveItem(item catalog.ScannedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		m.seq[item.ID] = m.next
		m.next++
	}
	m.items[item.ID] = item
	return nil
}

// DeleteItem removes one item; unknown IDs are a no-op.
func (m *MemStore) DeleteItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	delete(m.seq, id)
	return nil
}

// LoadItems returns all items in first-save order.
func (m *MemStore) LoadItems() ([]catalog.ScannedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]catalog.ScannedItem, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return m.seq[out[i].ID] < m.seq[out[j].ID]
	})
	return out, nil
}

// Clear drops every stored item.
func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]catalog.ScannedItem)
	m.seq = make(map[string]int)
	m.next = 0
	return nil
}
