// Package jobs holds the queued background work of the order flow.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/multidelivery/painel/app/events"
	"github.com/multidelivery/painel/pkg/broker"
	"github.com/multidelivery/painel/pkg/queue"
)

const NotifyPedidoName = "pedidos.notify"

// NotifyPedidoJob forwards an order event to the message broker so
// downstream consumers (kitchen printer, notifier) see it. The routing key
// is the event name.
type NotifyPedidoJob struct {
	Evento events.PedidoEvent `json:"evento"`

	publisher broker.Publisher
}

func NewNotifyPedidoJob(pub broker.Publisher, ev events.PedidoEvent) *NotifyPedidoJob {
	return &NotifyPedidoJob{Evento: ev, publisher: pub}
}

func (NotifyPedidoJob) JobName() string { return NotifyPedidoName }

func (j *NotifyPedidoJob) Handle(ctx context.Context) error {
	if j.publisher == nil {
		return fmt.Errorf("notify pedido %d: no publisher", j.Evento.NumeroPedido)
	}
	body, err := json.Marshal(j.Evento)
	if err != nil {
		return err
	}
	return j.publisher.Publish(ctx, j.Evento.Evento, body)
}

// Register teaches m to decode NotifyPedidoJob payloads bound to pub.
func Register(m *queue.Manager, pub broker.Publisher) {
	m.Register(NotifyPedidoName, func() queue.Job {
		return &NotifyPedidoJob{publisher: pub}
	})
}
