package providers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/i474232898/weather-lookup/internal/metrics"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// CachedGeocoder wraps a Geocoder and remembers its answers, including
// "not found", for a while. Place names rarely move.
type CachedGeocoder struct {
	next  weather.Geocoder
	cache *cache.Cache
}

var _ weather.Geocoder = (*CachedGeocoder)(nil)

// NewCachedGeocoder caches results of next for ttl.
func NewCachedGeocoder(next weather.Geocoder, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Geocode answers from the cache or asks the wrapped geocoder.
func (c *CachedGeocoder) Geocode(ctx context.Context, name string, limit int) ([]weather.Place, error) {
	key := strings.ToLower(strings.TrimSpace(name)) + "|" + strconv.Itoa(limit)
	if v, ok := c.cache.Get(key); ok {
		if places, ok := v.([]weather.Place); ok {
			metrics.GeocodeCache.WithLabelValues("hit").Inc()
			return places, nil
		}
	}
	metrics.GeocodeCache.WithLabelValues("miss").Inc()

	places, err := c.next.Geocode(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, places, cache.DefaultExpiration)
	return places, nil
}

// Len reports the number of cached queries.
func (c *CachedGeocoder) Len() int {
	return c.cache.ItemCount()
}
