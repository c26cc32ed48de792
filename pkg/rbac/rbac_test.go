package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/pkg/middleware"
	"github.com/multidelivery/painel/pkg/rbac"
)

func TestAllows(t *testing.T) {
	assert.True(t, rbac.Allows(models.RoleAdmin, rbac.GerenciarCatalogo))
	assert.True(t, rbac.Allows(models.RoleAdmin, rbac.OperarPedidos))
	assert.True(t, rbac.Allows(models.RoleUser, rbac.OperarPedidos))
	assert.False(t, rbac.Allows(models.RoleUser, rbac.GerenciarCatalogo))
	assert.False(t, rbac.Allows("entregador", rbac.OperarPedidos))
}

func TestRequire(t *testing.T) {
	h := rbac.Require(rbac.GerenciarCatalogo)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for role, want := range map[string]int{models.RoleAdmin: http.StatusCreated, models.RoleUser: http.StatusForbidden, "": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/api/produtos", nil)
		if role != "" {
			req = req.WithContext(middleware.WithIdentity(req.Context(), middleware.Identity{UserID: "u", Role: role}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %q", role)
	}
}
