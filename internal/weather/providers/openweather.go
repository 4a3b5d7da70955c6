package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weather-lookup/internal/common"
	"github.com/i474232898/weather-lookup/internal/weather"
)

const defaultOpenWeatherURL = "https://pro.openweathermap.org/data/2.5"

// OpenWeatherClient implements weather.Client for OpenWeatherMap.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	up      upstream
}

var _ weather.Client = (*OpenWeatherClient)(nil)

// NewOpenWeatherClient creates a client. An empty baseURL selects the
// public endpoint.
func NewOpenWeatherClient(client *http.Client, apiKey, baseURL string) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = defaultOpenWeatherURL
	}
	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		up:      newUpstream("openweathermap", client),
	}
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Current fetches the current conditions at the given position.
func (c *OpenWeatherClient) Current(ctx context.Context, at weather.Coordinates, lang, units string) (weather.Snapshot, error) {
	if c.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("openweathermap: %w", errNoAPIKey)
	}

	values := coordValues(at)
	values.Set("units", units)
	values.Set("lang", lang)
	values.Set("appid", c.apiKey)

	var payload struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Dt   int64  `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			TempMin   float64 `json:"temp_min"`
			TempMax   float64 `json:"temp_max"`
			FeelsLike float64 `json:"feels_like"`
			Pressure  float64 `json:"pressure"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
		Sys     struct {
			Country string `json:"country"`
			Sunrise int64  `json:"sunrise"`
			Sunset  int64  `json:"sunset"`
		} `json:"sys"`
	}
	if err := c.up.getJSON(ctx, c.baseURL+"/weather?"+values.Encode(), &payload); err != nil {
		return weather.Snapshot{}, err
	}

	observed := unixUTC(payload.Dt)
	if observed.IsZero() {
		observed = time.Now().UTC()
	}

	snap := weather.Snapshot{
		CityID:      payload.ID,
		CityName:    payload.Name,
		Country:     payload.Sys.Country,
		Temperature: payload.Main.Temp,
		TempMin:     payload.Main.TempMin,
		TempMax:     payload.Main.TempMax,
		FeelsLike:   payload.Main.FeelsLike,
		Pressure:    payload.Main.Pressure,
		Condition:   weather.ConditionUnknown,
		Sunrise:     unixUTC(payload.Sys.Sunrise),
		Sunset:      unixUTC(payload.Sys.Sunset),
		ObservedAt:  observed,
	}
	if len(payload.Weather) > 0 {
		w := payload.Weather[0]
		snap.Condition = mapOpenWeatherCondition(w.Main)
		snap.Description = w.Description
		snap.Icon = w.Icon
	}
	return snap, nil
}

// Forecast fetches count days of daily forecast at the given position.
func (c *OpenWeatherClient) Forecast(ctx context.Context, at weather.Coordinates, count int, units string) (weather.Forecast, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweathermap: %w", errNoAPIKey)
	}
	if count <= 0 {
		return nil, fmt.Errorf("count must be greater than zero")
	}

	values := coordValues(at)
	values.Set("cnt", strconv.Itoa(count))
	values.Set("units", units)
	values.Set("appid", c.apiKey)

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Temp struct {
				Day   float64 `json:"day"`
				Night float64 `json:"night"`
			} `json:"temp"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
	}
	if err := c.up.getJSON(ctx, c.baseURL+"/forecast/daily?"+values.Encode(), &payload); err != nil {
		return nil, err
	}

	forecast := make(weather.Forecast, 0, len(payload.List))
	for _, d := range payload.List {
		day := weather.DailyForecast{
			Timestamp: unixUTC(d.Dt),
			DayTemp:   d.Temp.Day,
			NightTemp: d.Temp.Night,
		}
		if len(d.Weather) > 0 {
			day.Description = d.Weather[0].Description
			day.Icon = d.Weather[0].Icon
		}
		forecast = append(forecast, day)
		if len(forecast) == count {
			break
		}
	}
	return forecast, nil
}

func coordValues(at weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	return values
}

func unixUTC(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch {
	case main == "":
		return weather.ConditionUnknown
	case main == "Clear":
		return weather.ConditionClear
	case main == "Clouds":
		return weather.ConditionCloudy
	case main == "Rain" || main == "Drizzle":
		return weather.ConditionRain
	case main == "Snow":
		return weather.ConditionSnow
	case main == "Thunderstorm" || main == "Tornado" || main == "Squall":
		return weather.ConditionStorm
	case common.HasAny(main, "mist", "fog", "haze", "smoke", "dust", "sand", "ash"):
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
