package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-lookup/internal/metrics"
)

// Request names what to resolve. Exactly one of Item, Coordinates and Query
// is expected; Item wins over Coordinates, which wins over Query.
type Request struct {
	Item        *CityItem
	Coordinates *Coordinates
	Query       string

	// Persist saves the fetched result and marks it most recently viewed.
	Persist bool
}

// Resolve runs the refresh policy for req and returns the resulting state.
// Fetch failures end up in the state's status; only cancellation and local
// store failures are returned as errors.
func (s *Service) Resolve(ctx context.Context, req Request) (State, error) {
	ticket := s.view.begin()
	err := s.resolve(ctx, ticket, req)
	return s.State(), err
}

// Select shows a saved city, refetching it when stale.
func (s *Service) Select(ctx context.Context, id int64) (State, error) {
	item, ok := s.savedItem(id)
	if !ok {
		return s.State(), fmt.Errorf("select %d: %w", id, ErrUnknownCity)
	}
	return s.Resolve(ctx, Request{Item: &item, Persist: true})
}

// Locate shows the weather at the device position without saving it.
func (s *Service) Locate(ctx context.Context, at Coordinates) (State, error) {
	return s.Resolve(ctx, Request{Coordinates: &at})
}

// Confirm saves the currently displayed result.
func (s *Service) Confirm(ctx context.Context) (State, error) {
	cur := s.view.get().Current
	if cur == nil {
		return s.State(), ErrNothingToConfirm
	}
	if err := s.merge(ctx, *cur); err != nil {
		return s.State(), err
	}
	s.markRecent(ctx, cur.CityID)
	return s.State(), nil
}

// Refresh re-runs the refresh policy for the displayed city when it has gone
// stale. It does nothing while another fetch is in progress.
func (s *Service) Refresh(ctx context.Context) error {
	st := s.view.get()
	if st.Current == nil || st.Status.Kind == StatusInProgress {
		return nil
	}
	if !st.Current.RequiresUpdate(s.now(), st.Lang) {
		return nil
	}
	item := *st.Current
	_, err := s.Resolve(ctx, Request{Item: &item, Persist: s.isSaved(item.CityID)})
	return err
}

func (s *Service) resolve(ctx context.Context, ticket uint64, req Request) error {
	opID := uuid.NewString()
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("op.id", opID),
		attribute.Bool("persist", req.Persist),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Resolve"), slog.String("op", opID))
	st := s.view.get()

	switch {
	case req.Item != nil:
		item := *req.Item
		span.SetAttributes(attribute.Int64("city.id", item.CityID))
		if !item.RequiresUpdate(s.now(), st.Lang) {
			l.DebugContext(ctx, "Serving saved city", slog.Int64("city_id", item.CityID))
			metrics.Resolves.WithLabelValues("cached").Inc()
			s.show(ctx, ticket, item, s.isSaved(item.CityID))
			return nil
		}
		if !st.NetworkOn {
			// Offline recall: a stale copy beats an empty screen.
			l.InfoContext(ctx, "Offline, serving stale city", slog.Int64("city_id", item.CityID))
			metrics.Resolves.WithLabelValues("offline").Inc()
			s.show(ctx, ticket, item, s.isSaved(item.CityID))
			return nil
		}
		target := fetchTarget{at: item.Coordinates, persist: req.Persist}
		if item.Lang == st.Lang {
			// keep a localized name picked at search time
			target.name = item.CityName
		}
		if s.isSaved(item.CityID) {
			target.savedID = item.CityID
		}
		return s.fetch(ctx, ticket, target, l)

	case req.Coordinates != nil:
		if !st.NetworkOn {
			metrics.Resolves.WithLabelValues("offline").Inc()
			return ErrOffline
		}
		return s.fetch(ctx, ticket, fetchTarget{at: *req.Coordinates, persist: req.Persist}, l)

	default:
		if !st.NetworkOn {
			metrics.Resolves.WithLabelValues("offline").Inc()
			return ErrOffline
		}
		span.SetAttributes(attribute.String("query", req.Query))
		s.setStatus(ticket, statusOf(StatusInProgress))

		places, err := s.geocoder.Geocode(ctx, req.Query, s.cfg.GeocodeLimit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "geocoding failed")
			return s.fail(ctx, ticket, fmt.Errorf("geocode %q: %w", req.Query, err), l)
		}
		if len(places) == 0 {
			l.InfoContext(ctx, "Place not found", slog.String("query", req.Query))
			metrics.Resolves.WithLabelValues("empty").Inc()
			s.setStatus(ticket, statusOf(StatusEmpty))
			return nil
		}
		return s.fetch(ctx, ticket, fetchTarget{
			at:      places[0].Coordinates(),
			name:    places[0].LocalName(s.view.get().Lang),
			persist: req.Persist,
		}, l)
	}
}

// fetchTarget describes one fetch. name, when set, replaces the city name
// reported by the weather API. savedID is the saved city being refreshed.
type fetchTarget struct {
	at      Coordinates
	name    string
	savedID int64
	persist bool
}

// fetch loads current conditions and the forecast together; the state and
// the store only change when both succeed.
func (s *Service) fetch(ctx context.Context, ticket uint64, target fetchTarget, l *slog.Logger) error {
	at, persist := target.at, target.persist
	s.setStatus(ticket, statusOf(StatusInProgress))
	lang := s.view.get().Lang

	var (
		snap     Snapshot
		forecast Forecast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.client.Current(gctx, at, lang, s.cfg.Units)
		if err != nil {
			return fmt.Errorf("current weather at %s: %w", at, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		forecast, err = s.client.Forecast(gctx, at, s.cfg.ForecastDays, s.cfg.Units)
		if err != nil {
			return fmt.Errorf("forecast at %s: %w", at, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		return s.fail(ctx, ticket, err, l)
	}

	if len(forecast) > s.cfg.ForecastDays {
		forecast = forecast[:s.cfg.ForecastDays]
	}
	name := snap.CityName
	if target.name != "" {
		name = target.name
	}
	item := CityItem{
		CityID:      snap.CityID,
		CityName:    name,
		Country:     snap.Country,
		Snapshot:    snap,
		Forecast:    forecast,
		Lang:        lang,
		LastUpdated: s.now().UTC(),
		Coordinates: at,
	}

	if persist && target.savedID != 0 && !s.isSaved(target.savedID) {
		// deleted while the fetch was in flight
		l.InfoContext(ctx, "City deleted during fetch, not saving", slog.Int64("city_id", target.savedID))
		persist = false
	}
	if persist {
		if err := s.merge(ctx, item); err != nil {
			return err
		}
	}
	metrics.Resolves.WithLabelValues("fetched").Inc()
	l.InfoContext(ctx, "Fetched weather",
		slog.Int64("city_id", item.CityID),
		slog.String("city", item.CityName),
		slog.Bool("persist", persist))
	s.show(ctx, ticket, item, persist)
	return nil
}

// fail turns a fetch error into the Error status. Cancellation is not a
// failure and leaves the state alone.
func (s *Service) fail(ctx context.Context, ticket uint64, err error, l *slog.Logger) error {
	if errors.Is(err, context.Canceled) {
		l.DebugContext(ctx, "Resolve cancelled")
		metrics.Resolves.WithLabelValues("canceled").Inc()
		return err
	}
	l.ErrorContext(ctx, "Failed to fetch weather", slog.Any("error", err))
	metrics.Resolves.WithLabelValues("error").Inc()
	s.setStatus(ticket, statusError(err))
	return nil
}

// show displays item with status Success and, when markRecent is set,
// remembers it for the next launch.
func (s *Service) show(ctx context.Context, ticket uint64, item CityItem, markRecent bool) {
	applied := s.view.update(ticket, func(st *State) {
		st.Current = &item
		st.Status = statusOf(StatusSuccess)
	})
	if !applied {
		s.logger.DebugContext(ctx, "Dropped stale result", slog.Int64("city_id", item.CityID))
		return
	}
	if markRecent {
		s.markRecent(ctx, item.CityID)
	}
}

func (s *Service) markRecent(ctx context.Context, id int64) {
	if err := s.prefs.SetRecentCityID(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "Failed to save recent city", slog.Int64("city_id", id), slog.Any("error", err))
	}
}
