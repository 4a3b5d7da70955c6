package weather

import (
	"context"
)

// Geocoder resolves a free-text place name to candidate places.
// An empty result with a nil error means the name was not found.
type Geocoder interface {
	Geocode(ctx context.Context, name string, limit int) ([]Place, error)
}

// Client abstracts the weather data source (OpenWeatherMap).
type Client interface {
	Current(ctx context.Context, at Coordinates, lang, units string) (Snapshot, error)
	Forecast(ctx context.Context, at Coordinates, count int, units string) (Forecast, error)
}

// CityStore is the contract every saved-city store must satisfy.
// All returns items ordered by LastUpdated descending.
type CityStore interface {
	Upsert(ctx context.Context, item CityItem) error
	DeleteByID(ctx context.Context, id int64) error
	All(ctx context.Context) ([]CityItem, error)

	// Subscribe emits the full ordered collection after every change until
	// ctx is done.
	Subscribe(ctx context.Context) <-chan []CityItem
}

// PreferenceStore persists small user preferences between launches.
// Getters report ok=false when the key was never set.
type PreferenceStore interface {
	DarkTheme(ctx context.Context) (bool, error)
	SetDarkTheme(ctx context.Context, dark bool) error

	RecentCityID(ctx context.Context) (id int64, ok bool, err error)
	SetRecentCityID(ctx context.Context, id int64) error

	SplashShown(ctx context.Context) (bool, error)
	SetSplashShown(ctx context.Context, shown bool) error
}
