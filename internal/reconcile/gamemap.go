package reconcile

import (
	"sync"

	"github.com/joe/nexus-library/internal/catalog"
)

// GameMap is the canonical in-memory library keyed by app id. Callers get
// copies, so an item changes only through Put or Update.
type GameMap struct {
	mu    sync.RWMutex
	items map[string]*catalog.GameItem
	order []string
}

// NewGameMap creates an empty map.
func NewGameMap() *GameMap {
	return &GameMap{items: make(map[string]*catalog.GameItem)}
}

// Get returns a copy of the item for id.
func (m *GameMap) Get(id string) (*catalog.GameItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, false
	}

	return item.Clone(), true
}

// Put stores a copy of item, replacing any item with the same id.
func (m *GameMap) Put(item *catalog.GameItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[item.ID]; !exists {
		m.order = append(m.order, item.ID)
	}

	m.items[item.ID] = item.Clone()
}

// Update applies fn to the stored item under the write lock.
func (m *GameMap) Update(id string, fn func(*catalog.GameItem)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if ok {
		fn(item)
	}

	return ok
}

// All returns copies of every item in insertion order.
func (m *GameMap) All() []*catalog.GameItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*catalog.GameItem, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, m.items[id].Clone())
	}

	return items
}

// Len returns the number of items.
func (m *GameMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}
