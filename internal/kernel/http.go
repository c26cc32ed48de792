// Package kernel assembles the HTTP handler: global middleware, the
// Prometheus endpoint, the API routes and the SPA fallback.
package kernel

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/pkg/metrics"
	"github.com/multidelivery/painel/pkg/middleware"
	"github.com/multidelivery/painel/pkg/reqid"
	"github.com/multidelivery/painel/pkg/response"
	"github.com/multidelivery/painel/pkg/router"
)

const (
	msgNotFound         = "Rota não encontrada"
	msgMethodNotAllowed = "Método não permitido"
)

// HTTPKernel owns the router the application registers its routes on.
type HTTPKernel struct {
	router    *router.Router
	staticDir string
}

// NewHTTPKernel builds the global middleware stack and calls each register
// function to add routes.
func NewHTTPKernel(register ...func(*router.Router)) *HTTPKernel {
	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics, for total latency
	//  2. Recovery
	//  3. Request ID, before anything logs
	//  4. Logger
	//  5. CORS
	//  6. Rate limiter
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(config.CORSOrigins()))
	r.Use(middleware.RateLimit(config.RateLimitPerMinute(), time.Minute))

	r.Get("/metrics", "metrics", metrics.Handler())

	for _, fn := range register {
		fn(r)
	}

	k := &HTTPKernel{router: r, staticDir: config.StaticDir()}
	r.NotFound(k.fallback)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})
	return k
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

// Router exposes the routes, for route:list.
func (k *HTTPKernel) Router() *router.Router { return k.router }

// fallback serves the built SPA for non-API GETs: the file when it exists,
// index.html otherwise so client-side routes resolve.
func (k *HTTPKernel) fallback(w http.ResponseWriter, r *http.Request) {
	if k.staticDir == "" || strings.HasPrefix(r.URL.Path, "/api") ||
		(r.Method != http.MethodGet && r.Method != http.MethodHead) {
		response.Error(w, http.StatusNotFound, msgNotFound)
		return
	}

	index := filepath.Join(k.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		response.Error(w, http.StatusNotFound, msgNotFound)
		return
	}

	name := filepath.Join(k.staticDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}
	http.ServeFile(w, r, index)
}
