package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/weather-lookup/internal/metrics"
)

var (
	// ErrSuperseded is returned by a search cancelled by a newer one.
	ErrSuperseded = errors.New("superseded by a newer search")

	// ErrOffline is returned when a fetch is needed but the network is down.
	ErrOffline = errors.New("network unavailable")

	// ErrUnknownCity is returned when selecting a city that is not saved.
	ErrUnknownCity = errors.New("city is not saved")

	// ErrNothingToConfirm is returned by Confirm when nothing is displayed.
	ErrNothingToConfirm = errors.New("no weather result to confirm")
)

// Settings tunes the service. Zero values fall back to the defaults.
type Settings struct {
	MaxItems       int
	ForecastDays   int
	GeocodeLimit   int
	Units          string
	SearchDebounce time.Duration
	Lang           string
}

func (s Settings) withDefaults() Settings {
	if s.MaxItems <= 0 {
		s.MaxItems = MaxItemCount
	}
	if s.ForecastDays <= 0 {
		s.ForecastDays = ForecastDays
	}
	if s.GeocodeLimit <= 0 {
		s.GeocodeLimit = 1
	}
	if s.Units == "" {
		s.Units = UnitsMetric
	}
	if s.SearchDebounce < 0 {
		s.SearchDebounce = 0
	}
	s.Lang = NormalizeLanguage(s.Lang)
	return s
}

// Service owns the presentation state and the in-memory mirror of the
// saved cities. It decides when to serve saved data and when to refetch.
type Service struct {
	geocoder Geocoder
	client   Client
	store    CityStore
	prefs    PreferenceStore
	logger   *slog.Logger
	cfg      Settings
	now      func() time.Time

	view *presenter

	mu    sync.RWMutex
	items []CityItem // newest first

	searchMu     sync.Mutex
	cancelSearch context.CancelFunc
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, client Client, store CityStore, prefs PreferenceStore, cfg Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Service{
		geocoder: geocoder,
		client:   client,
		store:    store,
		prefs:    prefs,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		view:     newPresenter(cfg.Lang),
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// State returns a copy of the presentation state.
func (s *Service) State() State {
	st := s.view.get()
	if st.Current != nil {
		st.Saved = s.isSaved(st.Current.CityID)
	}
	return st
}

// Cities lists the saved cities newest first with their display names.
func (s *Service) Cities() []ListEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DisplayNames(s.items)
}

// SetNetwork records the device network availability.
func (s *Service) SetNetwork(online bool) State {
	s.view.update(0, func(st *State) { st.NetworkOn = online })
	return s.State()
}

// Restore loads the saved cities and shows the most recently viewed one.
// With no saved cities the status becomes Empty.
func (s *Service) Restore(ctx context.Context) (State, error) {
	l := s.logger.With(slog.String("method", "Restore"))
	ticket := s.view.begin()
	s.setStatus(ticket, statusOf(StatusInProgress))

	if err := s.reload(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to load saved cities", slog.Any("error", err))
		s.setStatus(ticket, statusError(err))
		return s.State(), err
	}
	defer func() {
		if err := s.prefs.SetSplashShown(ctx, true); err != nil {
			l.WarnContext(ctx, "Failed to record splash screen", slog.Any("error", err))
		}
	}()

	s.mu.RLock()
	items := append([]CityItem(nil), s.items...)
	s.mu.RUnlock()

	if len(items) == 0 {
		l.InfoContext(ctx, "No saved cities")
		s.setStatus(ticket, statusOf(StatusEmpty))
		return s.State(), nil
	}

	target := items[0]
	if id, ok, err := s.prefs.RecentCityID(ctx); err != nil {
		l.WarnContext(ctx, "Failed to read recent city", slog.Any("error", err))
	} else if ok {
		if i := indexOf(items, id); i >= 0 {
			target = items[i]
		}
	}

	l.InfoContext(ctx, "Restoring city", slog.Int64("city_id", target.CityID))
	err := s.resolve(ctx, ticket, Request{Item: &target, Persist: true})
	return s.State(), err
}

// Run keeps the mirror in sync with the store until ctx is done and
// re-applies the size bound on every change.
func (s *Service) Run(ctx context.Context) {
	for items := range s.store.Subscribe(ctx) {
		kept, evicted := EnforceBound(items, s.cfg.MaxItems)
		s.evict(ctx, evicted)
		s.setItems(kept)
	}
}

// DarkTheme reports the saved theme preference.
func (s *Service) DarkTheme(ctx context.Context) (bool, error) {
	return s.prefs.DarkTheme(ctx)
}

// SetDarkTheme saves the theme preference.
func (s *Service) SetDarkTheme(ctx context.Context, dark bool) error {
	return s.prefs.SetDarkTheme(ctx, dark)
}

// SplashShown reports whether the splash screen was already shown.
func (s *Service) SplashShown(ctx context.Context) (bool, error) {
	return s.prefs.SplashShown(ctx)
}

// merge upserts item and evicts whatever no longer fits.
func (s *Service) merge(ctx context.Context, item CityItem) error {
	if err := s.store.Upsert(ctx, item); err != nil {
		return fmt.Errorf("upsert city %d: %w", item.CityID, err)
	}
	items, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("list cities: %w", err)
	}
	kept, evicted := EnforceBound(items, s.cfg.MaxItems)
	s.evict(ctx, evicted)
	s.setItems(kept)
	return nil
}

func (s *Service) evict(ctx context.Context, items []CityItem) {
	for _, it := range items {
		if err := s.store.DeleteByID(ctx, it.CityID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to evict city",
				slog.Int64("city_id", it.CityID), slog.Any("error", err))
			continue
		}
		metrics.Evictions.Inc()
		s.logger.InfoContext(ctx, "Evicted oldest city",
			slog.Int64("city_id", it.CityID), slog.Time("last_updated", it.LastUpdated))
	}
}

func (s *Service) reload(ctx context.Context) error {
	items, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("list cities: %w", err)
	}
	kept, evicted := EnforceBound(items, s.cfg.MaxItems)
	s.evict(ctx, evicted)
	s.setItems(kept)
	return nil
}

func (s *Service) setItems(items []CityItem) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	metrics.SavedCities.Set(float64(len(items)))
}

func (s *Service) savedItem(id int64) (CityItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return CityItem{}, false
}

func (s *Service) isSaved(id int64) bool {
	_, ok := s.savedItem(id)
	return ok
}

func (s *Service) setStatus(ticket uint64, st Status) bool {
	return s.view.update(ticket, func(state *State) { state.Status = st })
}
