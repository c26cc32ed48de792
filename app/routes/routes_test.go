package routes_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/multidelivery/painel/app/events"
	"github.com/multidelivery/painel/app/listeners"
	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/app/routes"
	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/auth"
	"github.com/multidelivery/painel/pkg/cache"
	"github.com/multidelivery/painel/pkg/database"
	"github.com/multidelivery/painel/pkg/event"
	"github.com/multidelivery/painel/pkg/router"
	"github.com/multidelivery/painel/pkg/sse"
	"github.com/multidelivery/painel/pkg/testkit"
	"github.com/multidelivery/painel/pkg/ws"
)

const (
	adminEmail    = "admin@painel.local"
	adminPassword = "segredo123"
)

type env struct {
	db      *gorm.DB
	handler http.Handler
	auth    *services.AuthService
	pedidos *services.PedidoService
	hub     *ws.Hub
	admin   models.PublicUser
	vars    testkit.Vars
}

func str(s string) *string { return &s }

func newEnv(t *testing.T) *env {
	t.Helper()
	bg := context.Background()

	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	authSvc := services.NewAuthService(db)
	_, err = authSvc.EnsureAdmin(bg, adminEmail, "Admin", adminPassword)
	require.NoError(t, err)
	login, err := authSvc.Login(bg, adminEmail, adminPassword)
	require.NoError(t, err)

	catalog := services.NewCatalogService(db)
	cliente, err := catalog.CreateCliente(bg, services.NovoCliente{Nome: "Maria Silva", Endereco: str("Rua das Flores, 123")})
	require.NoError(t, err)
	pizza, err := catalog.CreateProduto(bg, services.NovoProduto{Nome: "Pizza Margherita", Preco: decimal.RequireFromString("45.90"), Estoque: 10})
	require.NoError(t, err)
	refri, err := catalog.CreateProduto(bg, services.NovoProduto{Nome: "Refrigerante 2L", Preco: decimal.RequireFromString("12.00"), Estoque: 10})
	require.NoError(t, err)
	off := false
	inativo, err := catalog.CreateProduto(bg, services.NovoProduto{Nome: "Lasanha", Preco: decimal.RequireFromString("38.00"), Ativo: &off})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(bg)
	t.Cleanup(cancel)

	dispatcher := event.New()
	broker := sse.NewBroker(16)
	hub := ws.NewHub()
	go hub.Run(ctx)

	pedidos := services.NewPedidoService(db, cache.NewMemory(), dispatcher)
	listeners.Register(dispatcher, listeners.Deps{SSE: broker, Hub: hub, Resumo: pedidos})

	r := router.New()
	routes.RegisterAPI(r, routes.Deps{
		Auth:    authSvc,
		Pedidos: pedidos,
		Catalog: catalog,
		SSE:     broker,
		Hub:     hub,
		Ping:    func(context.Context) error { return nil },
	})

	return &env{
		db:      db,
		handler: r.Handler(),
		auth:    authSvc,
		pedidos: pedidos,
		hub:     hub,
		admin:   login.User,
		vars: testkit.Vars{
			"email":      adminEmail,
			"password":   adminPassword,
			"cliente_id": cliente.ID,
			"pizza_id":   pizza.ID,
			"refri_id":   refri.ID,
			"inativo_id": inativo.ID,
		},
	}
}

func (e *env) createPedido(t *testing.T) models.PedidoDetalhe {
	t.Helper()
	det, err := e.pedidos.Create(context.Background(), services.NovoPedido{
		FormaPagamento: "pix",
		Itens:          []services.ItemInput{{ProdutoID: e.vars["pizza_id"], Quantidade: 1}},
	})
	require.NoError(t, err)
	return det
}

func (e *env) ticket(t *testing.T) string {
	t.Helper()
	st, err := e.auth.StreamTicket(e.admin.ID, e.admin.Role)
	require.NoError(t, err)
	return st.Ticket
}

func TestPedidosFlow(t *testing.T) {
	e := newEnv(t)
	testkit.RunFlow(t, e.handler, "testdata/pedidos_flow.json", e.vars)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStreamTicketEndpoint(t *testing.T) {
	e := newEnv(t)
	login, err := e.auth.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/stream-ticket", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body services.StreamTicket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Ticket)
	assert.Positive(t, body.ExpiresIn)

	// A stream ticket is not a session token.
	req = httptest.NewRequest(http.MethodGet, "/api/pedidos", nil)
	req.Header.Set("Authorization", "Bearer "+body.Ticket)
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStreamsRejectMissingTicket(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/api/pedidos/events", "/api/pedidos/ws", "/api/pedidos/events?ticket=lixo"} {
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func (e *env) post(t *testing.T, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestCatalogWritesNeedAdmin(t *testing.T) {
	e := newEnv(t)
	bg := context.Background()

	hash, err := auth.HashPassword("senha123")
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&models.User{Email: "op@painel.local", Name: "Operador", PasswordHash: hash, Role: models.RoleUser}).Error)
	op, err := e.auth.Login(bg, "op@painel.local", "senha123")
	require.NoError(t, err)
	admin, err := e.auth.Login(bg, adminEmail, adminPassword)
	require.NoError(t, err)

	body := `{"nome":"Suco","preco":"8.00","estoque":100}`
	rec := e.post(t, "/api/produtos", op.Token, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.post(t, "/api/produtos", admin.Token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p models.Produto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Suco", p.Nome)
	assert.True(t, p.Ativo)
	assert.True(t, p.Preco.Equal(decimal.RequireFromString("8")))

	rec = e.post(t, "/api/produtos", admin.Token, `{"nome":"Sazonal","preco":"20.00","ativo":false}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.False(t, p.Ativo)

	rec = e.post(t, "/api/produtos", admin.Token, `{"nome":"Grátis","preco":"0"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.post(t, "/api/clientes", admin.Token, `{"nome":"Ana","email":"ana@x.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = e.post(t, "/api/clientes", admin.Token, `{"nome":"Outra Ana","email":"ana@x.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Email já cadastrado"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/produtos?ativos=1", nil)
	req.Header.Set("Authorization", "Bearer "+op.Token)
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.Produto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 3)
	for _, p := range list {
		assert.NotEqual(t, "Lasanha", p.Nome)
	}
}

// readFrame returns the next SSE frame, skipping heartbeat comments.
func readFrame(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, ":") {
			continue
		}
		if line == "\n" {
			if b.Len() == 0 {
				continue
			}
			return b.String()
		}
		b.WriteString(line)
	}
}

func TestEventsReplayAndLive(t *testing.T) {
	e := newEnv(t)
	first := e.createPedido(t)

	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/pedidos/events?ticket="+e.ticket(t), nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "0")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	frame := readFrame(t, r)
	assert.Contains(t, frame, "id: 1\n")
	assert.Contains(t, frame, "event: "+events.PedidoCriado+"\n")
	assert.Contains(t, frame, first.ID)

	_, err = e.pedidos.Aceitar(context.Background(), first.ID)
	require.NoError(t, err)

	frame = readFrame(t, r)
	assert.Contains(t, frame, "event: "+events.PedidoStatus+"\n")
	assert.Contains(t, frame, `"status":"preparando"`)
	assert.Contains(t, frame, `"status_anterior":"pendente"`)
}

func (e *env) openEvents(t *testing.T, srv *httptest.Server, lastID string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/pedidos/events?ticket="+e.ticket(t), nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", lastID)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return bufio.NewReader(resp.Body)
}

func TestReconnectAfterStatusEventReplaysNothingSeen(t *testing.T) {
	e := newEnv(t)
	first := e.createPedido(t)
	e.createPedido(t)

	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	r := e.openEvents(t, srv, "0")
	assert.Contains(t, readFrame(t, r), "id: 1\n")
	assert.Contains(t, readFrame(t, r), "id: 2\n")

	_, err := e.pedidos.Aceitar(context.Background(), first.ID)
	require.NoError(t, err)
	frame := readFrame(t, r)
	assert.Contains(t, frame, "event: "+events.PedidoStatus+"\n")
	assert.NotContains(t, frame, "id:")

	// EventSource keeps the last id it saw, which is still order 2.
	r = e.openEvents(t, srv, "2")
	third := e.createPedido(t)
	frame = readFrame(t, r)
	assert.Contains(t, frame, "id: 3\n")
	assert.Contains(t, frame, third.ID)
}

func TestWebSocketBroadcast(t *testing.T) {
	e := newEnv(t)
	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/pedidos/ws?ticket=" + e.ticket(t)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return e.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	det := e.createPedido(t)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var got events.PedidoEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, events.PedidoCriado, got.Evento)
	assert.Equal(t, det.ID, got.PedidoID)
	assert.Equal(t, det.NumeroPedido, got.NumeroPedido)
	assert.Equal(t, models.StatusPendente, got.Status)
}

func TestGraphQL(t *testing.T) {
	e := newEnv(t)
	det := e.createPedido(t)
	login, err := e.auth.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	query := `{"query":"query($id: ID!) { pedidos(status: \"pendente\") { numero_pedido total pago } pedido(id: $id) { itens { nome_produto subtotal } } resumo { total_pedidos } }","variables":{"id":"` + det.ID + `"}}`
	rec := e.post(t, "/api/graphql", login.Token, query)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":{
		"pedidos":[{"numero_pedido":1,"total":"45.90","pago":true}],
		"pedido":{"itens":[{"nome_produto":"Pizza Margherita","subtotal":"45.90"}]},
		"resumo":{"total_pedidos":1}
	}}`, rec.Body.String())

	rec = e.post(t, "/api/graphql", login.Token, `{"query":"{ pedido(id: \"nao-existe\") { id } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"pedido":null}}`, rec.Body.String())

	rec = e.post(t, "/api/graphql", login.Token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
