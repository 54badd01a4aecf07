package pipeline

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
	"github.com/couchcryptid/firms-wildfire-service/internal/lru"
)

// RegionKey identifies one region query. Every field participates in cache
// lookups.
type RegionKey struct {
	Dataset         domain.Dataset
	Days            int
	ExcludeFlares   bool
	PredictableOnly bool
}

func (k RegionKey) String() string {
	return fmt.Sprintf("us|%s|days=%d|excludeFlares=%t|predictableOnly=%t",
		k.Dataset, k.Days, k.ExcludeFlares, k.PredictableOnly)
}

type cacheEntry struct {
	key      RegionKey
	storedAt time.Time
	payload  *RegionResult
}

// ResultCache holds recent region results for a fixed TTL. It is bounded;
// once full, the least recently used key is evicted.
type ResultCache struct {
	ttl     time.Duration
	clock   clockwork.Clock
	entries *lru.Cache[RegionKey, cacheEntry]
}

// NewResultCache creates a cache. A nil clock uses the real clock.
func NewResultCache(ttl time.Duration, maxEntries int, clock clockwork.Clock) *ResultCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResultCache{
		ttl:     ttl,
		clock:   clock,
		entries: lru.New[RegionKey, cacheEntry](maxEntries),
	}
}

// Get returns the payload stored for key if it is younger than the TTL.
// Payloads are shared between callers and must not be modified.
func (c *ResultCache) Get(key RegionKey) (*RegionResult, bool) {
	e, ok := c.entries.Get(key)
	if !ok || e.key != key {
		return nil, false
	}
	if c.expired(e) {
		// A refresh may have stored a newer entry since the read above.
		c.entries.RemoveIf(key, c.expired)
		return nil, false
	}
	return e.payload, true
}

func (c *ResultCache) expired(e cacheEntry) bool {
	return c.clock.Since(e.storedAt) >= c.ttl
}

// Put stores payload under key, stamped with the current time.
func (c *ResultCache) Put(key RegionKey, payload *RegionResult) {
	c.entries.Put(key, cacheEntry{key: key, storedAt: c.clock.Now(), payload: payload})
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}
