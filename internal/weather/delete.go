package weather

import (
	"context"
	"fmt"
	"log/slog"
)

// Delete removes a saved city. When the deleted city is the one displayed,
// the next older saved city takes its place, or the next newer one when it
// was the oldest. With nothing left the state becomes Empty.
func (s *Service) Delete(ctx context.Context, id int64) (State, error) {
	l := s.logger.With(slog.String("method", "Delete"), slog.Int64("city_id", id))

	s.mu.RLock()
	before := append([]CityItem(nil), s.items...)
	s.mu.RUnlock()

	cur := s.view.get().Current
	idx := indexOf(before, id)

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return s.State(), fmt.Errorf("delete city %d: %w", id, err)
	}
	if err := s.reload(ctx); err != nil {
		return s.State(), err
	}

	if cur == nil || cur.CityID != id || idx < 0 {
		l.InfoContext(ctx, "Deleted city")
		return s.State(), nil
	}

	next := -1
	switch {
	case idx+1 < len(before):
		next = idx + 1
	case idx-1 >= 0:
		next = idx - 1
	}

	ticket := s.view.begin()
	if next < 0 {
		l.InfoContext(ctx, "Deleted last city")
		s.view.update(ticket, func(st *State) {
			st.Current = nil
			st.Status = statusOf(StatusEmpty)
		})
		return s.State(), nil
	}

	repl := before[next]
	l.InfoContext(ctx, "Deleted displayed city", slog.Int64("replacement_id", repl.CityID))
	// The successor is displayed even if refreshing it fails below.
	s.view.update(ticket, func(st *State) {
		st.Current = &repl
		st.Status = statusOf(StatusInProgress)
	})
	err := s.resolve(ctx, ticket, Request{Item: &repl, Persist: true})
	s.markRecent(ctx, repl.CityID)
	return s.State(), err
}
