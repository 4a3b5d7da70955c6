package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Search handles search-as-you-type input. Each call cancels the previous
// pending search, waits for the debounce delay and then:
//   - blank text shows the most recently viewed saved city (or Empty),
//   - text matching a saved city's display name shows that city,
//   - anything else is geocoded when the network is on.
//
// A search cancelled by a newer one returns ErrSuperseded.
func (s *Service) Search(ctx context.Context, text string) (State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.searchMu.Lock()
	if s.cancelSearch != nil {
		s.cancelSearch()
	}
	s.cancelSearch = cancel
	s.searchMu.Unlock()

	if s.cfg.SearchDebounce > 0 {
		timer := time.NewTimer(s.cfg.SearchDebounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return s.State(), superseded(ctx.Err())
		case <-timer.C:
		}
	}

	l := s.logger.With(slog.String("method", "Search"))
	ticket := s.view.begin()
	text = strings.TrimSpace(text)

	if text == "" {
		err := s.showRecent(ctx, ticket, l)
		return s.State(), superseded(err)
	}

	if item, ok := MatchName(s.Cities(), text); ok {
		l.DebugContext(ctx, "Search matched saved city", slog.Int64("city_id", item.CityID))
		err := s.resolve(ctx, ticket, Request{Item: &item, Persist: true})
		return s.State(), superseded(err)
	}

	if !s.view.get().NetworkOn {
		l.InfoContext(ctx, "Offline, search ignored", slog.String("query", text))
		return s.State(), nil
	}
	err := s.resolve(ctx, ticket, Request{Query: text})
	return s.State(), superseded(err)
}

func (s *Service) showRecent(ctx context.Context, ticket uint64, l *slog.Logger) error {
	id, ok, err := s.prefs.RecentCityID(ctx)
	if err != nil {
		l.WarnContext(ctx, "Failed to read recent city", slog.Any("error", err))
	}
	if ok {
		if item, found := s.savedItem(id); found {
			return s.resolve(ctx, ticket, Request{Item: &item, Persist: true})
		}
	}
	s.setStatus(ticket, statusOf(StatusEmpty))
	return nil
}

func superseded(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrSuperseded, err)
	}
	return err
}
