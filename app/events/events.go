// Package events names the order events and their payload.
package events

import (
	"strconv"
	"time"

	"github.com/multidelivery/painel/app/models"
)

const (
	PedidoCriado = "pedido.criado"
	PedidoStatus = "pedido.status"
)

// Names lists every order event.
var Names = []string{PedidoCriado, PedidoStatus}

// PedidoEvent is delivered to listeners and pushed to SSE, WebSocket and AMQP
// consumers as JSON.
type PedidoEvent struct {
	Evento         string        `json:"evento"`
	PedidoID       string        `json:"pedido_id"`
	NumeroPedido   int64         `json:"numero_pedido"`
	Status         models.Status `json:"status"`
	StatusAnterior models.Status `json:"status_anterior,omitempty"`
	Em             time.Time     `json:"em"`
}

func Criado(p models.Pedido) PedidoEvent {
	return PedidoEvent{
		Evento:       PedidoCriado,
		PedidoID:     p.ID,
		NumeroPedido: p.NumeroPedido,
		Status:       p.Status,
		Em:           time.Now(),
	}
}

func StatusAlterado(p models.Pedido, anterior models.Status) PedidoEvent {
	return PedidoEvent{
		Evento:         PedidoStatus,
		PedidoID:       p.ID,
		NumeroPedido:   p.NumeroPedido,
		Status:         p.Status,
		StatusAnterior: anterior,
		Em:             time.Now(),
	}
}

// Replayed rebuilds the creation event of an order already stored, for
// clients catching up after a reconnect.
func Replayed(p models.PedidoResumo) PedidoEvent {
	return PedidoEvent{
		Evento:       PedidoCriado,
		PedidoID:     p.ID,
		NumeroPedido: p.NumeroPedido,
		Status:       p.Status,
		Em:           p.CreatedAt,
	}
}

// Cursor is the stream id of the event. Creation events carry the order
// number; status events carry none, so a client's Last-Event-ID stays at the
// newest order it has seen.
func (e PedidoEvent) Cursor() string {
	if e.Evento != PedidoCriado {
		return ""
	}
	return strconv.FormatInt(e.NumeroPedido, 10)
}

// Dispatcher is the part of the event bus services publish through.
type Dispatcher interface {
	FireAsync(event string, payload interface{})
}
