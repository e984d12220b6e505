// Package layout provides a process-wide cache of values derived from an
// owner object, keyed by the owner's identity token. Entries are evicted
// once the owner becomes unreachable, so the cache never extends an owner's
// lifetime.
package layout

import (
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Cache maps owner identities to derived values of type V.
type Cache[O any, V any] struct {
	mu sync.Mutex // guards insert-if-absent
	m  sync.Map   // uuid.UUID -> V
}

// Get returns the value cached for id, building and caching it on first use.
// build must not retain owner.
func (c *Cache[O, V]) Get(owner *O, id uuid.UUID, build func() V) V {
	if v, ok := c.m.Load(id); ok {
		return v.(V)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.m.Load(id); ok {
		return v.(V)
	}
	v := build()
	c.m.Store(id, v)
	runtime.AddCleanup(owner, c.evict, id)
	return v
}

// Lookup returns the cached value without building it.
func (c *Cache[O, V]) Lookup(id uuid.UUID) (V, bool) {
	v, ok := c.m.Load(id)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Invalidate drops the entry for id.
func (c *Cache[O, V]) Invalidate(id uuid.UUID) { c.m.Delete(id) }

// Len returns the number of live entries.
func (c *Cache[O, V]) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (c *Cache[O, V]) evict(id uuid.UUID) { c.m.Delete(id) }
