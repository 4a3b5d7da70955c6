package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// googleMu serializes access to the package-level API key of kelvins/geocoder.
var googleMu sync.Mutex

// GoogleGeocoder implements weather.Geocoder with the Google Maps geocoding
// API. It returns at most one place and no localized names.
type GoogleGeocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

var _ weather.Geocoder = (*GoogleGeocoder)(nil)

// NewGoogleGeocoder creates a geocoder using the given Google API key.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

// Geocode resolves name to a single place. The underlying library has no
// context support; ctx only bounds how long the caller waits.
func (g *GoogleGeocoder) Geocode(ctx context.Context, name string, _ int) ([]weather.Place, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google geocoding: %w", errNoAPIKey)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		googleMu.Lock()
		defer googleMu.Unlock()
		geocoder.ApiKey = g.apiKey
		loc, err := g.lookup(geocoder.Address{City: name})
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			if common.HasAny(r.err.Error(), "no results", "zero_results", "unable to find", "not found") {
				return nil, nil
			}
			return nil, fmt.Errorf("google geocoding: %w", r.err)
		}
		return []weather.Place{{
			Name: name,
			Lat:  r.loc.Latitude,
			Lon:  r.loc.Longitude,
		}}, nil
	}
}
