package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache is a TTL cache for computed statistics, keyed by owner, operation
// and parameters. It is handed to the handlers that need it rather than
// living as a package-level singleton, so the statistics code stays stateless.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Key builds a cache key of the form "<owner>:<operation>[:param...]".
func Key(ownerID uuid.UUID, operation string, params ...string) string {
	parts := append([]string{ownerID.String(), operation}, params...)
	return strings.Join(parts, ":")
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// InvalidateOwner drops every entry belonging to one owner. Called after a
// new test session is recorded so statistics never serve stale totals past
// the write.
func (c *Cache) InvalidateOwner(ownerID uuid.UUID) {
	prefix := ownerID.String() + ":"

	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Prune removes expired entries and returns how many were dropped.
func (c *Cache) Prune() int {
	now := time.Now()
	dropped := 0

	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			dropped++
		}
	}
	c.mu.Unlock()

	return dropped
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
