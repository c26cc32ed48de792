package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multidelivery/painel/pkg/ws"
)

func startHub(t *testing.T, opts ...ws.Option) (*ws.Hub, *httptest.Server) {
	t.Helper()
	hub := ws.NewHub(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.Serve))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http")
	h := http.Header{}
	if origin != "" {
		h.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(u, h)
}

func TestPublishReachesClients(t *testing.T) {
	hub, srv := startHub(t)

	a, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer a.Close()
	b, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer b.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish([]byte(`{"evento":"pedido.criado"}`))

	for _, c := range []*websocket.Conn{a, b} {
		c.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"evento":"pedido.criado"}`, string(msg))
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t)

	c, _, err := dial(t, srv, "")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestAllowOrigins(t *testing.T) {
	_, srv := startHub(t, ws.AllowOrigins([]string{"http://painel.local"}))

	_, resp, err := dial(t, srv, "http://evil.example")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c, _, err := dial(t, srv, "http://painel.local")
	require.NoError(t, err)
	c.Close()
}
