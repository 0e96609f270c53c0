package engine

import (
	"sync"

	"annealer_control/internal/models"
)

// Broadcaster fans telemetry out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the sample, so a slow websocket
// client cannot stall the tick loop.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan models.Telemetry
	next int
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan models.Telemetry)}
}

// Subscribe registers a consumer. The returned cancel func must be called to
// release the subscription; the channel is closed by it.
func (b *Broadcaster) Subscribe(buffer int) (<-chan models.Telemetry, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.Telemetry, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a sample to every subscriber with room for it.
func (b *Broadcaster) Publish(t models.Telemetry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- t:
		default: // drop for slow consumers
		}
	}
}
