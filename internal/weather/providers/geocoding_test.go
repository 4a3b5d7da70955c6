package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/weather"
)

func TestOpenWeatherGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/direct", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		switch r.URL.Query().Get("q") {
		case "London":
			_, _ = w.Write([]byte(`[{"name":"London","local_names":{"de":"London","ru":"Лондон"},"lat":51.5085,"lon":-0.1257,"country":"GB"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	g := NewOpenWeatherGeocoder(srv.Client(), "secret", srv.URL)

	places, err := g.Geocode(context.Background(), "London", 1)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "GB", places[0].Country)
	assert.Equal(t, "Лондон", places[0].LocalName("ru"))
	assert.Equal(t, weather.Coordinates{Lat: 51.5085, Lon: -0.1257}, places[0].Coordinates())

	places, err = g.Geocode(context.Background(), "NONEXISTENT", 1)
	require.NoError(t, err)
	assert.Empty(t, places)

	places, err = g.Geocode(context.Background(), "  ", 1)
	require.NoError(t, err)
	assert.Nil(t, places)
}

type countingGeocoder struct {
	calls  int
	places []weather.Place
	err    error
}

func (c *countingGeocoder) Geocode(context.Context, string, int) ([]weather.Place, error) {
	c.calls++
	return c.places, c.err
}

func TestCachedGeocoder(t *testing.T) {
	next := &countingGeocoder{places: []weather.Place{{Name: "Paris", Country: "FR"}}}
	c := NewCachedGeocoder(next, time.Minute)
	ctx := context.Background()

	for _, q := range []string{"Paris", "paris", " PARIS "} {
		places, err := c.Geocode(ctx, q, 1)
		require.NoError(t, err)
		require.Len(t, places, 1)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, c.Len())

	_, err := c.Geocode(ctx, "Paris", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls, "limit is part of the key")
}

func TestCachedGeocoderRemembersNotFoundButNotErrors(t *testing.T) {
	ctx := context.Background()

	empty := &countingGeocoder{}
	c := NewCachedGeocoder(empty, time.Minute)
	_, _ = c.Geocode(ctx, "NONEXISTENT", 1)
	_, _ = c.Geocode(ctx, "NONEXISTENT", 1)
	assert.Equal(t, 1, empty.calls)

	failing := &countingGeocoder{err: errors.New("boom")}
	c = NewCachedGeocoder(failing, time.Minute)
	_, err := c.Geocode(ctx, "Paris", 1)
	assert.Error(t, err)
	_, _ = c.Geocode(ctx, "Paris", 1)
	assert.Equal(t, 2, failing.calls)
	assert.Zero(t, c.Len())
}

func TestGoogleGeocoder(t *testing.T) {
	g := &GoogleGeocoder{apiKey: "key", lookup: func(addr geocoder.Address) (geocoder.Location, error) {
		if addr.City == "Rome" {
			return geocoder.Location{Latitude: 41.89, Longitude: 12.48}, nil
		}
		return geocoder.Location{}, errors.New("No results found")
	}}
	ctx := context.Background()

	places, err := g.Geocode(ctx, "Rome", 1)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Rome", places[0].Name)
	assert.InDelta(t, 41.89, places[0].Lat, 0.001)

	places, err = g.Geocode(ctx, "Atlantis", 1)
	require.NoError(t, err)
	assert.Empty(t, places)

	_, err = NewGoogleGeocoder("").Geocode(ctx, "Rome", 1)
	assert.ErrorIs(t, err, errNoAPIKey)
}
