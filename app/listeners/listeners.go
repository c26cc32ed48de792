// Package listeners reacts to order events: live feeds, cache, metrics and
// the broker notification job.
package listeners

import (
	"context"
	"encoding/json"

	"github.com/multidelivery/painel/app/events"
	"github.com/multidelivery/painel/app/jobs"
	"github.com/multidelivery/painel/pkg/broker"
	"github.com/multidelivery/painel/pkg/event"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/metrics"
	"github.com/multidelivery/painel/pkg/queue"
	"github.com/multidelivery/painel/pkg/sse"
	"github.com/multidelivery/painel/pkg/ws"
)

// ResumoInvalidator drops the cached daily summary.
type ResumoInvalidator interface {
	InvalidateResumo(ctx context.Context)
}

// Deps are the sinks the listeners feed. Nil members are skipped.
type Deps struct {
	SSE       *sse.Broker
	Hub       *ws.Hub
	Resumo    ResumoInvalidator
	Queue     *queue.Manager
	Publisher broker.Publisher
}

// Register subscribes every listener to both order events on d. The live
// feeds and the summary cache are fed inline so subscribers see an order's
// events in the order they happened and a read after a write is fresh.
func Register(d *event.Dispatcher, deps Deps) {
	for _, name := range events.Names {
		d.Listen(name, handler(recordMetrics))
		if deps.Resumo != nil {
			d.ListenInline(name, handler(func(events.PedidoEvent) {
				deps.Resumo.InvalidateResumo(context.Background())
			}))
		}
		if deps.SSE != nil {
			d.ListenInline(name, handler(toSSE(deps.SSE)))
		}
		if deps.Hub != nil {
			d.ListenInline(name, handler(toWS(deps.Hub)))
		}
		if deps.Queue != nil {
			d.Listen(name, handler(notify(deps.Queue, deps.Publisher)))
		}
	}
}

// handler adapts a typed listener, ignoring foreign payloads.
func handler(fn func(events.PedidoEvent)) event.Handler {
	return func(payload interface{}) {
		ev, ok := payload.(events.PedidoEvent)
		if !ok {
			logger.Warn("listeners: unexpected payload", "type", payload)
			return
		}
		fn(ev)
	}
}

func recordMetrics(ev events.PedidoEvent) {
	switch ev.Evento {
	case events.PedidoCriado:
		metrics.PedidosCreated.Inc()
	case events.PedidoStatus:
		metrics.StatusTransitions.WithLabelValues(string(ev.StatusAnterior), string(ev.Status)).Inc()
	}
}

func toSSE(b *sse.Broker) func(events.PedidoEvent) {
	return func(ev events.PedidoEvent) {
		out, err := sse.NewEvent(ev.Cursor(), ev.Evento, ev)
		if err != nil {
			logger.Error("listeners: encode sse event", "error", err)
			return
		}
		b.Publish(out)
	}
}

func toWS(h *ws.Hub) func(events.PedidoEvent) {
	return func(ev events.PedidoEvent) {
		body, err := json.Marshal(ev)
		if err != nil {
			logger.Error("listeners: encode ws event", "error", err)
			return
		}
		h.Publish(body)
	}
}

func notify(m *queue.Manager, pub broker.Publisher) func(events.PedidoEvent) {
	return func(ev events.PedidoEvent) {
		if err := m.Dispatch(context.Background(), jobs.NewNotifyPedidoJob(pub, ev)); err != nil {
			logger.Error("listeners: dispatch notify job",
				"numero_pedido", ev.NumeroPedido, "evento", ev.Evento, "error", err)
		}
	}
}
