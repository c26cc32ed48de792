// Package event is an in-process publish/subscribe dispatcher.
//
// Listeners run synchronously with Fire, or on a bounded worker pool with
// FireAsync once UsePool has been called. Listeners added with ListenInline
// run on the caller's goroutine under FireAsync too, in registration order:
//
//	d := event.New()
//	d.Listen("pedido.criado", func(p any) { ... })
//	d.ListenInline("pedido.criado", pushToFeed)
//	d.UsePool(workerpool.New(8))
//	d.FireAsync("pedido.criado", payload)
package event

import (
	"errors"
	"sync"

	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/workerpool"
)

// Handler receives an event payload.
type Handler func(payload interface{})

type listener struct {
	h      Handler
	inline bool
}

// Dispatcher routes events to the listeners registered for their name.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]listener
	pool     *workerpool.Pool
}

func New() *Dispatcher {
	return &Dispatcher{handlers: map[string][]listener{}}
}

// Listen registers a handler for the given event name.
func (d *Dispatcher) Listen(event string, handler Handler) {
	d.add(event, listener{h: handler})
}

// ListenInline registers a handler that FireAsync still runs before
// returning. It must not block: events fired one after another reach it in
// the order they were fired.
func (d *Dispatcher) ListenInline(event string, handler Handler) {
	d.add(event, listener{h: handler, inline: true})
}

func (d *Dispatcher) add(event string, l listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], l)
}

// UsePool routes FireAsync deliveries through p.
func (d *Dispatcher) UsePool(p *workerpool.Pool) {
	d.mu.Lock()
	d.pool = p
	d.mu.Unlock()
}

func (d *Dispatcher) snapshot(event string) ([]listener, *workerpool.Pool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	hs := make([]listener, len(d.handlers[event]))
	copy(hs, d.handlers[event])
	return hs, d.pool
}

// Fire delivers the event to every listener in registration order and
// returns when all of them have run.
func (d *Dispatcher) Fire(event string, payload interface{}) {
	hs, _ := d.snapshot(event)
	for _, l := range hs {
		l.h(payload)
	}
}

// FireAsync runs inline listeners, then hands every other listener to the
// pool and returns. When the pool is full the delivery waits for a slot, and
// when the pool is closed or absent it runs on its own goroutine.
func (d *Dispatcher) FireAsync(event string, payload interface{}) {
	hs, pool := d.snapshot(event)
	for _, l := range hs {
		if l.inline {
			l.h(payload)
		}
	}
	for _, l := range hs {
		if l.inline {
			continue
		}
		h := l.h
		task := func() { h(payload) }
		if pool == nil {
			go task()
			continue
		}
		if err := pool.Submit(task); err != nil {
			if errors.Is(err, workerpool.ErrPoolFull) {
				logger.Warn("event: pool full, waiting for a worker", "event", event)
				go func() { _ = pool.SubmitWait(task) }()
				continue
			}
			go task()
		}
	}
}

// Flush removes all listeners.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = map[string][]listener{}
}
