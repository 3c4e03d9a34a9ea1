// Package symcache memoizes symbol extraction by content hash. The same
// library jar often appears under several modules, and shaded copies of a
// class are byte-identical across jars.
package symcache

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"

	"github.com/yeren108/emt4j/internal/model"
)

// DefaultSize is the number of symbols kept when New is given zero.
const DefaultSize = 4096

// Cache is safe for concurrent use. A nil *Cache is valid and never hits.
// Cached symbols are shared between callers and must not be mutated.
type Cache struct {
	entries *lru.Cache[[sha256.Size]byte, *model.ClassSymbol]
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache holding up to size symbols.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[[sha256.Size]byte, *model.ClassSymbol](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Extract returns the cached symbol for data, calling extract on a miss.
// Failed extractions are not cached.
func (c *Cache) Extract(data []byte, extract func([]byte) (*model.ClassSymbol, error)) (*model.ClassSymbol, error) {
	if c == nil {
		return extract(data)
	}
	key := sha256.Sum256(data)
	if sym, ok := c.entries.Get(key); ok {
		c.hits.Inc()
		return sym, nil
	}
	c.misses.Inc()
	sym, err := extract(data)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, sym)
	return sym, nil
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
