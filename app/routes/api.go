package routes

import (
	"github.com/multidelivery/painel/app/controllers"
	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/ctx"
	"github.com/multidelivery/painel/pkg/graphql"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/middleware"
	"github.com/multidelivery/painel/pkg/rbac"
	"github.com/multidelivery/painel/pkg/router"
	"github.com/multidelivery/painel/pkg/sse"
	"github.com/multidelivery/painel/pkg/ws"
)

// Deps carries what the API handlers are built from.
type Deps struct {
	Auth    *services.AuthService
	Pedidos *services.PedidoService
	Catalog *services.CatalogService
	SSE     *sse.Broker
	Hub     *ws.Hub
	Ping    controllers.Pinger
}

func RegisterAPI(r *router.Router, d Deps) {
	authController := controllers.NewAuthController(d.Auth)
	pedidoController := controllers.NewPedidoController(d.Pedidos)
	pedidoController.Locate = func(id string) (string, error) {
		return r.URL("pedidos.show", map[string]string{"id": id})
	}
	catalogController := controllers.NewCatalogController(d.Catalog)
	streamController := controllers.NewStreamController(d.Pedidos, d.SSE, d.Hub)
	healthController := controllers.NewHealthController(d.Ping)

	api := r.Group("/api")
	api.Get("/health", "health", ctx.Wrap(healthController.Show))

	api.Post("/auth/login", "auth.login", ctx.Wrap(authController.Login))
	api.Get("/auth/me", "auth.me", ctx.Wrap(authController.Me))
	api.Post("/auth/logout", "auth.logout", ctx.Wrap(authController.Logout))

	// Push streams authenticate with a short-lived ?ticket=.
	stream := api.Group("/pedidos", middleware.StreamTicket)
	stream.Get("/events", "pedidos.events", ctx.Wrap(streamController.Events))
	stream.Get("/ws", "pedidos.ws", ctx.Wrap(streamController.WS))

	protected := api.Group("", middleware.Authenticate(d.Auth))
	protected.Post("/auth/stream-ticket", "auth.stream_ticket", ctx.Wrap(authController.StreamTicket))

	operar := rbac.Require(rbac.OperarPedidos)
	protected.Get("/pedidos", "pedidos.index", ctx.Wrap(pedidoController.Index))
	protected.Post("/pedidos", "pedidos.store", ctx.Wrap(pedidoController.Store), operar)
	protected.Get("/pedidos/alerta", "pedidos.alerta", ctx.Wrap(pedidoController.Alerta))
	protected.Get("/pedidos/resumo", "pedidos.resumo", ctx.Wrap(pedidoController.Resumo))
	protected.Get("/pedidos/{id}", "pedidos.show", ctx.Wrap(pedidoController.Show))
	protected.Patch("/pedidos/{id}/status", "pedidos.status", ctx.Wrap(pedidoController.UpdateStatus), operar)
	protected.Post("/pedidos/{id}/aceitar", "pedidos.aceitar", ctx.Wrap(pedidoController.Aceitar), operar)
	protected.Post("/pedidos/{id}/recusar", "pedidos.recusar", ctx.Wrap(pedidoController.Recusar), operar)

	protected.Get("/clientes", "clientes.index", ctx.Wrap(catalogController.Clientes))
	protected.Post("/clientes", "clientes.store", ctx.Wrap(catalogController.StoreCliente), rbac.Require(rbac.GerenciarCatalogo))
	protected.Get("/produtos", "produtos.index", ctx.Wrap(catalogController.Produtos))
	protected.Post("/produtos", "produtos.store", ctx.Wrap(catalogController.StoreProduto), rbac.Require(rbac.GerenciarCatalogo))

	schema, err := controllers.NewPedidoSchema(d.Pedidos)
	if err != nil {
		logger.Error("routes: graphql schema", "error", err)
		return
	}
	protected.Post("/graphql", "graphql", graphql.Handler(schema))
}
