// Package rbac maps panel roles to the actions they may perform.
//
//	r.Post("/produtos", "produtos.store", h, rbac.Require(rbac.GerenciarCatalogo))
//
// middleware.Authenticate must run before Require so the caller's role is
// on the request context.
package rbac

import (
	"net/http"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/pkg/middleware"
	"github.com/multidelivery/painel/pkg/response"
)

// Permission names one guarded action.
type Permission string

const (
	// OperarPedidos covers creating orders and moving them through the kitchen flow.
	OperarPedidos Permission = "pedidos:operar"
	// GerenciarCatalogo covers creating clientes and produtos.
	GerenciarCatalogo Permission = "catalogo:gerenciar"
)

var grants = map[string]map[Permission]bool{
	models.RoleAdmin: {OperarPedidos: true, GerenciarCatalogo: true},
	models.RoleUser:  {OperarPedidos: true},
}

// Allows reports whether role holds p. Unknown roles hold nothing.
func Allows(role string, p Permission) bool {
	return grants[role][p]
}

// Require rejects callers whose role lacks p with 403.
func Require(p Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok || !Allows(role, p) {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
