package search

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fyrsmithlabs/searchd/internal/backend"
)

// resultCache caches vector search results keyed by a content-derived
// hash. It is the one intentionally shared mutable structure in the hot
// path: a mutex-guarded map with lazy TTL expiry on access and FIFO
// (oldest-timestamp) capacity eviction. FIFO rather than LRU is a
// deliberate simplification; hits do not refresh entry age.
type resultCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	ttl      time.Duration
	capacity int

	hits   uint64
	misses uint64

	now func() time.Time
}

type cacheEntry struct {
	hits    []backend.Hit
	addedAt time.Time
}

func newResultCache(ttl time.Duration, capacity int) *resultCache {
	return &resultCache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// cacheKey derives the lookup hash from everything that changes a result
// set: query, limit, project filter (order-independent), score floor, and
// collection.
func cacheKey(query string, limit int, projects []string, minScore float64, collection string) string {
	sorted := make([]string, len(projects))
	copy(sorted, projects)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(limit)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(minScore, 'f', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(collection))
	return hex.EncodeToString(h.Sum(nil))
}

// get returns a copy of the cached hits, or nil on miss. Expired entries
// encountered during lookup are purged.
func (c *resultCache) get(key string) []backend.Hit {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		cacheMisses.Inc()
		return nil
	}

	c.hits++
	cacheHits.Inc()
	out := make([]backend.Hit, len(entry.hits))
	copy(out, entry.hits)
	return out
}

// put stores hits under key, evicting oldest-first past capacity.
func (c *resultCache) put(key string, hits []backend.Hit) {
	stored := make([]backend.Hit, len(hits))
	copy(stored, hits)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()
	c.entries[key] = cacheEntry{hits: stored, addedAt: c.now()}

	for len(c.entries) > c.capacity {
		oldestKey := ""
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.addedAt.Before(oldest) {
				oldestKey = k
				oldest = e.addedAt
			}
		}
		delete(c.entries, oldestKey)
		cacheEvictions.Inc()
	}
}

func (c *resultCache) purgeExpiredLocked() {
	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.entries {
		if e.addedAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
}

// Stats returns cumulative hit/miss counters.
func (c *resultCache) stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// len reports the current entry count.
func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
