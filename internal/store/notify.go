package store

import (
	"context"
	"sync"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// broadcaster fans store changes out to subscribers. Each subscriber holds
// at most one pending update; a slow reader only ever sees the latest one.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan []weather.CityItem]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan []weather.CityItem]struct{})}
}

func (b *broadcaster) subscribe(ctx context.Context) <-chan []weather.CityItem {
	ch := make(chan []weather.CityItem, 1)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *broadcaster) active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs) > 0
}

func (b *broadcaster) publish(items []weather.CityItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		snapshot := append([]weather.CityItem(nil), items...)
		select {
		case ch <- snapshot:
		default:
			// Replace the unread update with the newer one.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
