package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/weather"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENWEATHER_API_KEY", "GOOGLE_API_KEY", "OPENWEATHER_BASE_URL", "GEOCODING_BASE_URL",
		"HTTP_TIMEOUT", "SEARCH_DEBOUNCE", "REFRESH_INTERVAL", "GEOCODE_CACHE_TTL",
		"APP_LANGUAGE", "LANG", "MAX_SAVED_CITIES", "FORECAST_DAYS", "GEOCODER",
		"STORE_DRIVER", "DATABASE_URL", "PREFS_DRIVER", "REDIS_URL", "LOG_LEVEL", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.GeocodeCacheTTL)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, weather.MaxItemCount, cfg.MaxSavedCities)
	assert.Equal(t, weather.ForecastDays, cfg.ForecastDays)
	assert.Equal(t, GeocoderOpenWeather, cfg.Geocoder)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, DriverMemory, cfg.PrefsDriver)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LANG", "pt_BR.UTF-8")
	t.Setenv("SEARCH_DEBOUNCE", "1s")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/weather")
	t.Setenv("PREFS_DRIVER", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pt", cfg.Language)
	assert.Equal(t, time.Second, cfg.SearchDebounce)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, DriverRedis, cfg.PrefsDriver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	settings := cfg.ServiceSettings()
	assert.Equal(t, "pt", settings.Lang)
	assert.Equal(t, 1, settings.GeocodeLimit)
	assert.Equal(t, weather.UnitsMetric, settings.Units)
}

func TestAppLanguageWinsOverLang(t *testing.T) {
	clearEnv(t)
	t.Setenv("LANG", "fr_FR")
	t.Setenv("APP_LANGUAGE", "de")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Language)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := map[string]map[string]string{
		"bad duration":          {"HTTP_TIMEOUT": "soon"},
		"forecast out of range": {"FORECAST_DAYS": "30"},
		"zero capacity":         {"MAX_SAVED_CITIES": "0"},
		"unknown geocoder":      {"GEOCODER": "bing"},
		"google without key":    {"GEOCODER": "google"},
		"postgres without url":  {"STORE_DRIVER": "postgres"},
		"unknown store":         {"STORE_DRIVER": "sqlite"},
		"redis without url":     {"PREFS_DRIVER": "redis"},
		"bad log level":         {"LOG_LEVEL": "chatty"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
