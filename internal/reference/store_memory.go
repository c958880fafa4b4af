package reference

import (
	"context"
	"sync"
)

// InMemoryCatalog serves reference values from a map.
type InMemoryCatalog struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{entries: make(map[string][]Entry)}
}

// SetValues replaces the entries for a reference ID.
func (c *InMemoryCatalog) SetValues(referenceID string, entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[referenceID] = append([]Entry{}, entries...)
}

func (c *InMemoryCatalog) Values(_ context.Context, referenceID string) ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry{}, c.entries[referenceID]...), nil
}
