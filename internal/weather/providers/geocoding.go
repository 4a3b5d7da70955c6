package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-lookup/internal/weather"
)

const defaultGeocodingURL = "https://api.openweathermap.org/geo/1.0"

// OpenWeatherGeocoder implements weather.Geocoder with the OpenWeatherMap
// direct geocoding API.
type OpenWeatherGeocoder struct {
	apiKey  string
	baseURL string
	up      upstream
}

var _ weather.Geocoder = (*OpenWeatherGeocoder)(nil)

// NewOpenWeatherGeocoder creates a geocoder. An empty baseURL selects the
// public endpoint.
func NewOpenWeatherGeocoder(client *http.Client, apiKey, baseURL string) *OpenWeatherGeocoder {
	if baseURL == "" {
		baseURL = defaultGeocodingURL
	}
	return &OpenWeatherGeocoder{
		apiKey:  apiKey,
		baseURL: baseURL,
		up:      newUpstream("owm-geocoding", client),
	}
}

// Geocode returns up to limit places matching name.
func (g *OpenWeatherGeocoder) Geocode(ctx context.Context, name string, limit int) ([]weather.Place, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("owm-geocoding: %w", errNoAPIKey)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 1
	}

	values := url.Values{}
	values.Set("q", name)
	values.Set("limit", strconv.Itoa(limit))
	values.Set("appid", g.apiKey)

	var payload []struct {
		Name       string            `json:"name"`
		LocalNames map[string]string `json:"local_names"`
		Lat        float64           `json:"lat"`
		Lon        float64           `json:"lon"`
		Country    string            `json:"country"`
	}
	if err := g.up.getJSON(ctx, g.baseURL+"/direct?"+values.Encode(), &payload); err != nil {
		return nil, err
	}

	places := make([]weather.Place, 0, len(payload))
	for _, p := range payload {
		places = append(places, weather.Place{
			Name:       p.Name,
			LocalNames: p.LocalNames,
			Country:    p.Country,
			Lat:        p.Lat,
			Lon:        p.Lon,
		})
	}
	return places, nil
}
