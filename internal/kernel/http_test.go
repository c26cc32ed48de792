package kernel_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multidelivery/painel/internal/kernel"
	"github.com/multidelivery/painel/pkg/router"
)

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>painel</html>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o600))
	t.Setenv("STATIC_DIR", dir)

	h := kernel.NewHTTPKernel(func(r *router.Router) {
		r.Get("/api/ping", "ping", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}).Handler()

	rec := serve(h, http.MethodGet, "/assets/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = serve(h, http.MethodGet, "/pedidos/42")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "painel")

	rec = serve(h, http.MethodGet, "/api/nada")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Rota não encontrada"}`, rec.Body.String())

	rec = serve(h, http.MethodPost, "/pedidos")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "/api/ping").Code)

	rec = serve(h, http.MethodDelete, "/api/ping")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Método não permitido"}`, rec.Body.String())
}

func TestNoStaticDirMeansJSON404(t *testing.T) {
	t.Setenv("STATIC_DIR", filepath.Join(t.TempDir(), "missing"))

	rec := serve(kernel.NewHTTPKernel().Handler(), http.MethodGet, "/qualquer")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Rota não encontrada"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(kernel.NewHTTPKernel().Handler(), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
