package material

import (
	"log"
	"sync"

	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/materialpkg"
)

// cacheEntry is one ref-counted slot in the MaterialCache.
type cacheEntry struct {
	def      *Definition
	refCount uint32
}

// key identifies a cached Definition by its package's CRC32, so the
// same package bytes loaded through two distinct *materialpkg.Parser
// values share one entry. Two different packages whose CRC32 values
// collide would share an entry as well.
type key struct {
	crc32 uint32
}

// MaterialCache deduplicates Definitions built from identical material
// packages, so that loading the same compiled package through two
// different scene objects creates GPU resources (descriptor-set
// layouts, compiled programs) exactly once.
type MaterialCache struct {
	gpu driverapi.GPU

	mu      sync.Mutex
	entries map[key]*cacheEntry
}

// NewMaterialCache returns a cache that creates Definitions against gpu.
// gpu may be nil, in which case Definitions are created without backend
// resources (used by tests and tooling that only exercise parsing).
func NewMaterialCache(gpu driverapi.GPU) *MaterialCache {
	return &MaterialCache{
		gpu:     gpu,
		entries: make(map[key]*cacheEntry),
	}
}

// Acquire returns the Definition for parser's package, creating and
// caching one if this is the first reference to a package with that
// CRC32. Each call to Acquire must be matched by exactly one call to
// Release.
func (c *MaterialCache) Acquire(parser *materialpkg.Parser) (*Definition, error) {
	crc := parser.CRC32()
	k := key{crc32: crc}

	c.mu.Lock()
	if e, ok := c.entries[k]; ok {
		e.refCount++
		c.mu.Unlock()
		return e.def, nil
	}
	c.mu.Unlock()

	def, err := Create(c.gpu, parser, uint64(crc))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k]; ok {
		// Lost the race against a concurrent Acquire for the same
		// package; drop the duplicate we just built and share theirs.
		e.refCount++
		def.Terminate(c.gpu)
		return e.def, nil
	}
	c.entries[k] = &cacheEntry{def: def, refCount: 1}
	return def, nil
}

// Release drops one reference to the Definition cached for parser's
// package (looked up by CRC32), terminating and evicting it once the
// reference count reaches zero.
func (c *MaterialCache) Release(parser *materialpkg.Parser) {
	k := key{crc32: parser.CRC32()}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		panic("material: Release called on a parser with no outstanding reference")
	}
	e.refCount--
	if e.refCount > 0 {
		return
	}
	delete(c.entries, k)
	e.def.Terminate(c.gpu)
}

// Len reports the number of distinct Definitions currently cached.
func (c *MaterialCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Shutdown logs every Definition still referenced; it neither panics
// nor releases them. This mirrors the leak-on-shutdown diagnostics the engine's
// other per-frame caches perform.
func (c *MaterialCache) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		log.Printf("material: cache leak: %q still has %d reference(s) at shutdown", e.def.Name, e.refCount)
	}
}
