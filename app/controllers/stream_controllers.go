package controllers

import (
	"strconv"
	"time"

	"github.com/multidelivery/painel/app/events"
	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/ctx"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/sse"
	"github.com/multidelivery/painel/pkg/ws"
)

const replayLimit = 200

// StreamController serves the live order feeds.
type StreamController struct {
	pedidos   *services.PedidoService
	broker    *sse.Broker
	hub       *ws.Hub
	heartbeat time.Duration
}

func NewStreamController(pedidos *services.PedidoService, broker *sse.Broker, hub *ws.Hub) *StreamController {
	return &StreamController{pedidos: pedidos, broker: broker, hub: hub, heartbeat: 15 * time.Second}
}

// Events handles GET /api/pedidos/events. A client resuming with a
// Last-Event-ID first receives every order numbered after it.
func (s *StreamController) Events(c *ctx.Context) {
	// Subscribe before replaying so nothing created in between is lost.
	live, cancel := s.broker.Subscribe()
	defer cancel()

	stream := sse.New(c.W, c.R)
	if stream == nil {
		return
	}
	log := logger.WithCtx(c.Context())

	if cursor, err := strconv.ParseInt(sse.LastEventID(c.R), 10, 64); err == nil && cursor >= 0 {
		rows, err := s.pedidos.Since(c.Context(), cursor, replayLimit)
		if err != nil {
			log.Error("stream: replay", "error", err)
		}
		for _, row := range rows {
			ev := events.Replayed(row)
			out, err := sse.NewEvent(ev.Cursor(), ev.Evento, ev)
			if err != nil {
				continue
			}
			if err := stream.SendEvent(out); err != nil {
				return
			}
		}
	}

	tick := time.NewTicker(s.heartbeat)
	defer tick.Stop()

	for {
		select {
		case <-stream.Done():
			return
		case ev := <-live:
			if err := stream.SendEvent(ev); err != nil {
				log.Debug("stream: client gone", "error", err)
				return
			}
		case <-tick.C:
			if err := stream.Comment("ping"); err != nil {
				return
			}
		}
	}
}

// WS handles GET /api/pedidos/ws.
func (s *StreamController) WS(c *ctx.Context) {
	s.hub.Serve(c.W, c.R)
}
