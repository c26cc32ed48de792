// Package ws broadcasts messages to WebSocket clients using gorilla/websocket.
//
//	hub := ws.NewHub(ws.AllowOrigins(config.CORSOrigins()))
//	go hub.Run(ctx)
//
//	r.Get("/pedidos/ws", "pedidos.ws", func(w http.ResponseWriter, r *http.Request) {
//	    hub.Serve(w, r)
//	})
//
//	hub.Publish(payload)
//
// The feed is one-way: client messages are read only to process control
// frames and detect disconnects.
package ws

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// Option configures a Hub.
type Option func(*Hub)

// AllowOrigins restricts upgrades to the listed origins. "*" allows any.
func AllowOrigins(origins []string) Option {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(h *Hub) {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed["*"] || allowed[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		}
	}
}

// ─── Client ───────────────────────────────────────────────────────────────────

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws: unexpected close", "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

// Hub owns the set of connected clients. All mutation happens on the Run
// goroutine; ClientCount reads a copy kept under mu.
type Hub struct {
	upgrader   websocket.Upgrader
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	mu    sync.RWMutex
	count int
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Run is the hub event loop. It closes every client when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.setCount()
			metrics.StreamClients.WithLabelValues("ws").Inc()
			logger.Debug("ws: client connected", "total", len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				logger.Debug("ws: client disconnected", "total", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					logger.Warn("ws: client too slow, disconnecting")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount()
	metrics.StreamClients.WithLabelValues("ws").Dec()
}

func (h *Hub) setCount() {
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
}

// Publish queues msg for every connected client. It drops the message when
// the hub is backed up rather than block the publisher.
func (h *Hub) Publish(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("ws: broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Serve upgrades the request and registers the connection. The upgrader
// writes the HTTP error itself when the handshake fails.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws: upgrade failed", "error", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- c
	go c.writePump()
	go c.readPump()
}
