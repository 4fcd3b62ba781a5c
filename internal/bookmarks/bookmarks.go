// Package bookmarks keeps per-user saved records in memory. The data is not
// authoritative and does not survive a restart.
package bookmarks

import (
	"slices"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	mu  sync.Mutex
	c   *cache.Cache
	ttl time.Duration
}

// New keeps each user's set for ttl after its last change.
func New(ttl time.Duration) *Cache {
	return &Cache{c: cache.New(ttl, ttl/2), ttl: ttl}
}

func (b *Cache) Add(userID, recordID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := b.get(userID)
	if slices.Contains(ids, recordID) {
		return
	}
	b.c.Set(userID, append(ids, recordID), b.ttl)
}

func (b *Cache) Remove(userID, recordID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := slices.DeleteFunc(b.get(userID), func(id string) bool { return id == recordID })
	if len(ids) == 0 {
		b.c.Delete(userID)
		return
	}
	b.c.Set(userID, ids, b.ttl)
}

// List returns the user's bookmarks in the order they were added.
func (b *Cache) List(userID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.get(userID)
}

func (b *Cache) Has(userID, recordID string) bool {
	return slices.Contains(b.List(userID), recordID)
}

func (b *Cache) get(userID string) []string {
	if v, ok := b.c.Get(userID); ok {
		return slices.Clone(v.([]string))
	}
	return []string{}
}
