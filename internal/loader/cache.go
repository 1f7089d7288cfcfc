package loader

import (
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/KaramelBytes/woescope-cli/internal/frame"
	"github.com/KaramelBytes/woescope-cli/internal/metrics"
)

// Cache memoizes Load by blob identity so repeated uploads of the same bytes
// are parsed once. Failed loads are not cached.
type Cache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{cache: cache.New(ttl, ttl*2), ttl: ttl}
}

func cacheKey(blob []byte, opt Options) string {
	return fmt.Sprintf("%s:%d:%q", frame.Identity(blob), opt.Delimiter, opt.SheetName)
}

// Load returns the cached frame for blob or decodes it. The boolean reports a
// cache hit. A hit is renamed to name when the bytes were cached under another.
func (c *Cache) Load(name string, blob []byte, opt Options) (*frame.Frame, bool, error) {
	key := cacheKey(blob, opt)
	if v, found := c.cache.Get(key); found {
		if f, ok := v.(*frame.Frame); ok {
			metrics.RecordCacheLookup("loader", true)
			return f.WithName(name), true, nil
		}
	}
	metrics.RecordCacheLookup("loader", false)
	f, err := Load(name, blob, opt)
	if err != nil {
		return nil, false, err
	}
	c.cache.Set(key, f, c.ttl)
	return f, false, nil
}

// ItemCount returns the number of items in cache
func (c *Cache) ItemCount() int { return c.cache.ItemCount() }
