package weather

import (
	"fmt"
	"time"
)

const (
	// MaxItemCount bounds the number of saved cities.
	MaxItemCount = 20

	// ForecastDays is the forecast window requested from the weather API.
	ForecastDays = 5

	// StaleAfter is the age at which a saved city must be refetched.
	StaleAfter = time.Hour

	// UnitsMetric is the unit system requested from the weather API.
	UnitsMetric = "metric"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Snapshot is the current conditions of a city at a point in time.
type Snapshot struct {
	CityID      int64     `json:"cityId"`
	CityName    string    `json:"cityName"`
	Country     string    `json:"country"`
	Temperature float64   `json:"temperature"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	FeelsLike   float64   `json:"feelsLike"`
	Pressure    float64   `json:"pressure"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	ObservedAt  time.Time `json:"observedAt"`
}

// DailyForecast is one day of a Forecast.
type DailyForecast struct {
	Timestamp   time.Time `json:"timestamp"`
	DayTemp     float64   `json:"dayTemp"`
	NightTemp   float64   `json:"nightTemp"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

// Forecast is a multi-day forecast ordered by Timestamp ascending.
type Forecast []DailyForecast

// CityItem is a saved city together with the last weather fetched for it.
type CityItem struct {
	CityID      int64       `json:"cityId"`
	CityName    string      `json:"cityName"`
	Country     string      `json:"country"`
	Snapshot    Snapshot    `json:"snapshot"`
	Forecast    Forecast    `json:"forecast"`
	Lang        string      `json:"lang"`
	LastUpdated time.Time   `json:"lastUpdated"`
	Coordinates Coordinates `json:"coordinates"`
}

// RequiresUpdate reports whether the item is too old or was fetched in a
// different language than lang.
func (i CityItem) RequiresUpdate(now time.Time, lang string) bool {
	return now.Sub(i.LastUpdated) >= StaleAfter || i.Lang != lang
}

// Place is a geocoding candidate.
type Place struct {
	Name       string            `json:"name"`
	LocalNames map[string]string `json:"localNames,omitempty"`
	Country    string            `json:"country"`
	Lat        float64           `json:"lat"`
	Lon        float64           `json:"lon"`
}

// Coordinates returns the position of the place.
func (p Place) Coordinates() Coordinates {
	return Coordinates{Lat: p.Lat, Lon: p.Lon}
}

// LocalName returns the name of the place in lang, falling back to Name.
func (p Place) LocalName(lang string) string {
	if n, ok := p.LocalNames[lang]; ok && n != "" {
		return n
	}
	return p.Name
}
