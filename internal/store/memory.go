package store

import (
	"context"
	"sync"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of a city store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: city id
	data map[int64]weather.CityItem

	feed *broadcaster
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[int64]weather.CityItem),
		feed: newBroadcaster(),
	}
}

var _ weather.CityStore = (*MemoryStore)(nil)

// Upsert inserts item or replaces the item with the same city id.
func (s *MemoryStore) Upsert(ctx context.Context, item weather.CityItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.data[item.CityID] = item
	items := s.sortedLocked()
	s.mu.Unlock()

	s.feed.publish(items)
	return nil
}

// DeleteByID removes the item with the given id. Missing ids are ignored.
func (s *MemoryStore) DeleteByID(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.data[id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.data, id)
	items := s.sortedLocked()
	s.mu.Unlock()

	s.feed.publish(items)
	return nil
}

// All returns every item, most recently updated first.
func (s *MemoryStore) All(ctx context.Context) ([]weather.CityItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(), nil
}

// Subscribe emits the collection after every change.
func (s *MemoryStore) Subscribe(ctx context.Context) <-chan []weather.CityItem {
	return s.feed.subscribe(ctx)
}

func (s *MemoryStore) sortedLocked() []weather.CityItem {
	items := make([]weather.CityItem, 0, len(s.data))
	for _, it := range s.data {
		items = append(items, it)
	}
	weather.SortByRecency(items)
	return items
}
