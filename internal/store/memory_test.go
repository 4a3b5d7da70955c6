package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/weather"
)

func city(id int64, updated time.Time) weather.CityItem {
	return weather.CityItem{CityID: id, CityName: "City", Lang: "en", LastUpdated: updated}
}

func TestMemoryStoreUpsertIsKeyedByCityID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Upsert(ctx, city(1, base)))
	require.NoError(t, s.Upsert(ctx, city(2, base.Add(time.Minute))))
	require.NoError(t, s.Upsert(ctx, city(1, base.Add(2*time.Minute))))

	items, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].CityID, "newest first")
	assert.Equal(t, int64(2), items[1].CityID)

	assert.True(t, items[0].LastUpdated.Equal(base.Add(2*time.Minute)))
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Upsert(ctx, city(1, time.Now())))

	require.NoError(t, s.DeleteByID(ctx, 1))
	require.NoError(t, s.DeleteByID(ctx, 1), "missing ids are ignored")

	items, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStoreRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	assert.ErrorIs(t, s.Upsert(ctx, city(1, time.Now())), context.Canceled)
	_, err := s.All(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemoryStore()
	updates := s.Subscribe(ctx)

	require.NoError(t, s.Upsert(context.Background(), city(1, time.Now())))
	select {
	case items := <-updates:
		assert.Len(t, items, 1)
	case <-time.After(time.Second):
		t.Fatal("no update after upsert")
	}

	// unread updates collapse into the latest one
	require.NoError(t, s.Upsert(context.Background(), city(2, time.Now())))
	require.NoError(t, s.Upsert(context.Background(), city(3, time.Now())))
	items := <-updates
	assert.Len(t, items, 3)

	cancel()
	select {
	case _, open := <-updates:
		assert.False(t, open, "channel closes once ctx is done")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
