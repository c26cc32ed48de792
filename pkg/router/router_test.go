package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multidelivery/painel/pkg/router"
)

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(code) }
}

func TestGroupMiddlewareAndMethods(t *testing.T) {
	r := router.New()
	var hits []string
	tag := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				hits = append(hits, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	api := r.Group("/api", tag("api"))
	pedidos := api.Group("/pedidos", tag("auth"))
	pedidos.Patch("/{id}/status", "pedidos.status", status(http.StatusOK))
	api.Post("/auth/login", "auth.login", status(http.StatusOK))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/pedidos/42/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"api", "auth"}, hits)

	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pedidos/42/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestURLAndRoutes(t *testing.T) {
	r := router.New()
	r.Get("/api/pedidos/{id}", "pedidos.show", status(http.StatusOK))
	r.Delete("/api/x", "", status(http.StatusOK))

	url, err := r.URL("pedidos.show", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/pedidos/abc", url)

	_, err = r.URL("pedidos.show", nil)
	assert.Error(t, err)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, router.RouteInfo{Method: http.MethodGet, Path: "/api/pedidos/{id}", Name: "pedidos.show"}, routes[0])
	assert.Equal(t, http.MethodDelete, routes[1].Method)
}
