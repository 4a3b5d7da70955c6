package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/weather"
)

var londonAt = weather.Coordinates{Lat: 51.5085, Lon: -0.1257}

const currentBody = `{
	"id": 2643743,
	"name": "London",
	"dt": 1709294400,
	"main": {"temp": 11.2, "temp_min": 9.8, "temp_max": 12.4, "feels_like": 10.1, "pressure": 1012},
	"weather": [{"main": "Clouds", "description": "broken clouds", "icon": "04d"}],
	"sys": {"country": "GB", "sunrise": 1709275000, "sunset": 1709314000}
}`

const forecastBody = `{"list": [
	{"dt": 1709294400, "temp": {"day": 12, "night": 6}, "weather": [{"description": "light rain", "icon": "10d"}]},
	{"dt": 1709380800, "temp": {"day": 13, "night": 7}, "weather": [{"description": "clear sky", "icon": "01d"}]},
	{"dt": 1709467200, "temp": {"day": 14, "night": 8}, "weather": []}
]}`

func TestOpenWeatherCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "51.5085", q.Get("lat"))
		assert.Equal(t, "-0.1257", q.Get("lon"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "de", q.Get("lang"))
		assert.Equal(t, "secret", q.Get("appid"))
		_, _ = w.Write([]byte(currentBody))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(srv.Client(), "secret", srv.URL)
	snap, err := c.Current(context.Background(), londonAt, "de", weather.UnitsMetric)
	require.NoError(t, err)

	assert.Equal(t, int64(2643743), snap.CityID)
	assert.Equal(t, "London", snap.CityName)
	assert.Equal(t, "GB", snap.Country)
	assert.InDelta(t, 11.2, snap.Temperature, 0.001)
	assert.Equal(t, weather.ConditionCloudy, snap.Condition)
	assert.Equal(t, "broken clouds", snap.Description)
	assert.Equal(t, time.Unix(1709294400, 0).UTC(), snap.ObservedAt)
	assert.Equal(t, time.Unix(1709275000, 0).UTC(), snap.Sunrise)
}

func TestOpenWeatherForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast/daily", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("cnt"))
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(srv.Client(), "secret", srv.URL)
	fc, err := c.Forecast(context.Background(), londonAt, 2, weather.UnitsMetric)
	require.NoError(t, err)

	require.Len(t, fc, 2, "extra days are dropped")
	assert.InDelta(t, 12, fc[0].DayTemp, 0.001)
	assert.InDelta(t, 6, fc[0].NightTemp, 0.001)
	assert.Equal(t, "light rain", fc[0].Description)
	assert.Equal(t, "01d", fc[1].Icon)
}

func TestOpenWeatherErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"not found", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, errUnexpected, "city not found"},
		{"rate limited", http.StatusTooManyRequests, `{}`, errRateLimited, ""},
		{"server error", http.StatusInternalServerError, `oops`, errServerError, "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewOpenWeatherClient(srv.Client(), "secret", srv.URL)
			_, err := c.Current(context.Background(), londonAt, "en", weather.UnitsMetric)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestOpenWeatherRequiresKeyAndClient(t *testing.T) {
	_, err := NewOpenWeatherClient(http.DefaultClient, "", "").Current(context.Background(), londonAt, "en", weather.UnitsMetric)
	assert.ErrorIs(t, err, errNoAPIKey)

	_, err = NewOpenWeatherClient(nil, "secret", "").Forecast(context.Background(), londonAt, 5, weather.UnitsMetric)
	assert.ErrorIs(t, err, errNoHTTPClient)

	_, err = NewOpenWeatherClient(http.DefaultClient, "secret", "").Forecast(context.Background(), londonAt, 0, weather.UnitsMetric)
	assert.Error(t, err)
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(srv.Client(), "secret", srv.URL)
	var err error
	for i := 0; i < 10; i++ {
		_, err = c.Current(context.Background(), londonAt, "en", weather.UnitsMetric)
	}

	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, int32(6), hits.Load(), "the breaker trips after more than five consecutive failures")
}

func TestCancelledRequestDoesNotTripCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(currentBody))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(srv.Client(), "secret", srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 10; i++ {
		_, err := c.Current(ctx, londonAt, "en", weather.UnitsMetric)
		assert.ErrorIs(t, err, context.Canceled)
	}

	_, err := c.Current(context.Background(), londonAt, "en", weather.UnitsMetric)
	assert.NoError(t, err)
}

func TestMapOpenWeatherCondition(t *testing.T) {
	assert.Equal(t, weather.ConditionClear, mapOpenWeatherCondition("Clear"))
	assert.Equal(t, weather.ConditionRain, mapOpenWeatherCondition("Drizzle"))
	assert.Equal(t, weather.ConditionStorm, mapOpenWeatherCondition("Thunderstorm"))
	assert.Equal(t, weather.ConditionMist, mapOpenWeatherCondition("Fog"))
	assert.Equal(t, weather.ConditionUnknown, mapOpenWeatherCondition(""))
}
