// cache.go - Group secret cache.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package hybrid

import "sync"

// SecretCache stores group secrets by chat id.  Implementations must be safe
// for concurrent use.  Entries are never replaced or modified: a membership
// change is a different chat id.
type SecretCache interface {
	// Get returns the secret cached for id, if any.
	Get(id ChatID) (*ChatSecret, bool)

	// SetIfAbsent atomically stores cs under id unless an entry exists,
	// and returns the entry in effect afterwards and whether it was cs.
	SetIfAbsent(id ChatID, cs *ChatSecret) (*ChatSecret, bool)
}

// MemoryCache is an in-memory SecretCache.  The zero value is ready to use.
type MemoryCache struct {
	mu      sync.Mutex
	secrets map[ChatID]*ChatSecret
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{secrets: make(map[ChatID]*ChatSecret)}
}

// Get implements SecretCache.
func (c *MemoryCache) Get(id ChatID) (*ChatSecret, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cs, ok := c.secrets[id]
	return cs, ok
}

// SetIfAbsent implements SecretCache.
func (c *MemoryCache) SetIfAbsent(id ChatID, cs *ChatSecret) (*ChatSecret, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.secrets[id]; ok {
		return existing, false
	}
	if c.secrets == nil {
		c.secrets = make(map[ChatID]*ChatSecret)
	}
	c.secrets[id] = cs
	return cs, true
}

var _ SecretCache = (*MemoryCache)(nil)
