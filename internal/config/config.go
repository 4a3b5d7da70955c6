package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// Store and preference backends.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	GeocoderOpenWeather = "openweather"
	GeocoderGoogle      = "google"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	GoogleAPIKey      string

	// Endpoints; empty selects the public OpenWeatherMap URLs.
	WeatherBaseURL   string
	GeocodingBaseURL string

	// Geocoder selects the geocoding backend: openweather or google.
	Geocoder        string
	GeocodeCacheTTL time.Duration
	HTTPTimeout     time.Duration
	SearchDebounce  time.Duration
	RefreshInterval time.Duration
	Language        string
	MaxSavedCities  int
	ForecastDays    int

	StoreDriver string
	DatabaseURL string
	PrefsDriver string
	RedisURL    string

	LogLevel slog.Level
	Port     string
}

// Load reads configuration from environment with sensible defaults.
// Callers load any .env file first.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.WeatherBaseURL = os.Getenv("OPENWEATHER_BASE_URL")
	cfg.GeocodingBaseURL = os.Getenv("GEOCODING_BASE_URL")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.SearchDebounce, err = getenvDuration("SEARCH_DEBOUNCE", "300ms"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheTTL, err = getenvDuration("GEOCODE_CACHE_TTL", "24h"); err != nil {
		return nil, err
	}

	cfg.Language = weather.NormalizeLanguage(getenvDefault("APP_LANGUAGE", getenvDefault("LANG", weather.DefaultLanguage)))
	cfg.MaxSavedCities = getenvInt("MAX_SAVED_CITIES", weather.MaxItemCount)
	cfg.ForecastDays = getenvInt("FORECAST_DAYS", weather.ForecastDays)
	if cfg.MaxSavedCities <= 0 {
		return nil, fmt.Errorf("MAX_SAVED_CITIES must be positive")
	}
	if cfg.ForecastDays <= 0 || cfg.ForecastDays > 16 {
		return nil, fmt.Errorf("FORECAST_DAYS must be within [1, 16]")
	}

	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", GeocoderOpenWeather))
	switch cfg.Geocoder {
	case GeocoderOpenWeather:
	case GeocoderGoogle:
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required when GEOCODER=google")
		}
	default:
		return nil, fmt.Errorf("unknown GEOCODER %q", cfg.Geocoder)
	}

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", DriverMemory))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	cfg.PrefsDriver = strings.ToLower(getenvDefault("PREFS_DRIVER", DriverMemory))
	cfg.RedisURL = os.Getenv("REDIS_URL")
	switch cfg.PrefsDriver {
	case DriverMemory:
	case DriverRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when PREFS_DRIVER=redis")
		}
	default:
		return nil, fmt.Errorf("unknown PREFS_DRIVER %q", cfg.PrefsDriver)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenvDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// ServiceSettings maps the configuration onto weather.Settings.
func (c *AppConfig) ServiceSettings() weather.Settings {
	return weather.Settings{
		MaxItems:       c.MaxSavedCities,
		ForecastDays:   c.ForecastDays,
		GeocodeLimit:   1,
		Units:          weather.UnitsMetric,
		SearchDebounce: c.SearchDebounce,
		Lang:           c.Language,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
