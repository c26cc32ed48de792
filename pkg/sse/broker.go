package sse

import (
	"sync"

	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/metrics"
)

// Broker fans published events out to every subscribed stream.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int
}

// NewBroker creates a broker whose subscribers buffer up to buffer events.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broker{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned func unsubscribes and
// must be called once the stream ends.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	metrics.StreamClients.WithLabelValues("sse").Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			metrics.StreamClients.WithLabelValues("sse").Dec()
		})
	}
}

// Publish delivers ev to every subscriber without blocking. A subscriber
// whose buffer is full misses the event; it can catch up through
// Last-Event-ID on reconnect.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			logger.Warn("sse: subscriber buffer full, dropping event", "event", ev.Name, "id", ev.ID)
		}
	}
}

// Len returns the number of live subscribers.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
