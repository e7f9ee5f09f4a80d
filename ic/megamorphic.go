package ic

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/chazu/icache/shape"
)

type stubKey struct {
	shape shape.ID
	name  string // empty for element accesses
	flags Flags
}

// MegamorphicCache is the isolate-wide table used by sites that outgrew
// their polymorphic capacity. It holds two tables: per-shape handlers keyed
// by (shape, name, flags), and shape-erased code keyed by flags alone.
//
// The stub table grows without bound unless a maximum is configured, in
// which case the least recently used entries are evicted. The code table is
// bounded by the number of flag combinations and never evicts.
type MegamorphicCache struct {
	code    map[Flags]*Handler
	stubs   map[stubKey]*Handler
	bounded *lru.Cache

	filling bool

	probes uint64
	hits   uint64
}

// NewMegamorphicCache creates an empty cache. maxEntries <= 0 means the stub
// table is unbounded.
func NewMegamorphicCache(maxEntries int) (*MegamorphicCache, error) {
	c := &MegamorphicCache{code: make(map[Flags]*Handler)}
	if maxEntries > 0 {
		b, err := lru.New(maxEntries)
		if err != nil {
			return nil, err
		}
		c.bounded = b
	} else {
		c.stubs = make(map[stubKey]*Handler)
	}
	return c, nil
}

// Lookup probes the stub table.
func (c *MegamorphicCache) Lookup(s shape.Descriptor, name string, flags Flags) (*Handler, bool) {
	c.probes++
	key := stubKey{shape: s.ID(), name: name, flags: flags}
	var h *Handler
	if c.bounded != nil {
		if v, ok := c.bounded.Get(key); ok {
			h = v.(*Handler)
		}
	} else {
		h = c.stubs[key]
	}
	if h == nil {
		return nil, false
	}
	c.hits++
	return h, true
}

// Insert records h for (s, name, flags), replacing any previous entry.
func (c *MegamorphicCache) Insert(s shape.Descriptor, name string, flags Flags, h *Handler) {
	c.enter()
	defer c.leave()
	key := stubKey{shape: s.ID(), name: name, flags: flags}
	if c.bounded != nil {
		c.bounded.Add(key, h)
		return
	}
	c.stubs[key] = h
}

// LookupCode returns the shape-erased handler registered under flags.
func (c *MegamorphicCache) LookupCode(flags Flags) (*Handler, bool) {
	h, ok := c.code[flags]
	return h, ok
}

func (c *MegamorphicCache) fillCode(h *Handler) {
	c.enter()
	defer c.leave()
	c.code[h.Flags()] = h
}

// enter guards against insertions issued from inside another insertion,
// for example by a code emitter calling back into the cache.
func (c *MegamorphicCache) enter() {
	check(!c.filling, "reentrant megamorphic cache insertion")
	c.filling = true
}

func (c *MegamorphicCache) leave() { c.filling = false }

// Len returns the sizes of the stub and code tables.
func (c *MegamorphicCache) Len() (stubs, code int) {
	if c.bounded != nil {
		stubs = c.bounded.Len()
	} else {
		stubs = len(c.stubs)
	}
	return stubs, len(c.code)
}

// HitRate is the stub-table hit rate as a percentage (0-100).
func (c *MegamorphicCache) HitRate() float64 {
	if c.probes == 0 {
		return 0
	}
	return float64(c.hits) * 100 / float64(c.probes)
}

// Clear drops every entry of both tables.
func (c *MegamorphicCache) Clear() {
	if c.bounded != nil {
		c.bounded.Purge()
	} else {
		c.stubs = make(map[stubKey]*Handler)
	}
	c.code = make(map[Flags]*Handler)
	c.probes, c.hits = 0, 0
}
