package mapbox

import (
	"context"

	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
	"github.com/couchcryptid/firms-wildfire-service/internal/lru"
	"github.com/couchcryptid/firms-wildfire-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   lru.New[string, domain.GeocodingResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) GeocodePostalCode(ctx context.Context, postalCode string) (domain.GeocodingResult, error) {
	if result, ok := c.cache.Get(postalCode); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.GeocodePostalCode(ctx, postalCode)
	if err != nil {
		return result, err
	}
	// Only cache found results so transient "not found" responses can be retried.
	if result.Found() {
		c.cache.Put(postalCode, result)
	}
	return result, nil
}
