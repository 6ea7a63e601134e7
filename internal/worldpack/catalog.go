package worldpack

import (
	"fmt"
	"sync"
)

// Catalog is a thread-safe, read-only-after-load id index over a world pack
// collection. It generalises entity.Store to the fixed, pre-session-only
// content of a world pack: there is no Update or Remove because regions,
// locations, lore entries, and NPC souls never change shape once a session
// starts — only the mutable fields addressed through session.GameState do.
type Catalog[T any] struct {
	mu    sync.RWMutex
	byID  map[string]T
	order []string
}

// NewCatalog builds a Catalog from items, keyed by id(item). Returns an
// error if two items share an id.
func NewCatalog[T any](items []T, id func(T) string) (*Catalog[T], error) {
	c := &Catalog[T]{byID: make(map[string]T, len(items))}
	for _, item := range items {
		k := id(item)
		if _, exists := c.byID[k]; exists {
			return nil, fmt.Errorf("worldpack: duplicate id %q", k)
		}
		c.byID[k] = item
		c.order = append(c.order, k)
	}
	return c, nil
}

// Get retrieves an item by id. ok is false when no such id was loaded.
func (c *Catalog[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.byID[id]
	return v, ok
}

// All returns every item in load order.
func (c *Catalog[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byID[k])
	}
	return out
}

// Len reports the number of items in the catalog.
func (c *Catalog[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
