// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "weather_lookup"

var (
	// Resolves counts refresh-policy outcomes: cached, fetched, empty,
	// error, canceled, offline.
	Resolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolves_total",
		Help:      "Refresh policy decisions by outcome.",
	}, []string{"outcome"})

	// Evictions counts saved cities dropped to honour the size bound.
	Evictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evictions_total",
		Help:      "Saved cities evicted because the store was full.",
	})

	// SavedCities is the current number of saved cities.
	SavedCities = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "saved_cities",
		Help:      "Number of saved cities.",
	})

	// UpstreamRequests counts outbound API calls by upstream and result.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Outbound weather and geocoding API requests.",
	}, []string{"upstream", "result"})

	// GeocodeCache counts geocoding cache lookups by result (hit, miss).
	GeocodeCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_cache_total",
		Help:      "Geocoding cache lookups.",
	}, []string{"result"})
)
