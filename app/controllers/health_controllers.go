package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/multidelivery/painel/pkg/ctx"
	"github.com/multidelivery/painel/pkg/logger"
)

// Pinger checks a backing dependency.
type Pinger func(ctx context.Context) error

type HealthController struct {
	ping Pinger
}

func NewHealthController(ping Pinger) *HealthController {
	return &HealthController{ping: ping}
}

// Show handles GET /api/health.
func (h *HealthController) Show(c *ctx.Context) {
	pctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := h.ping(pctx); err != nil {
		logger.WithCtx(c.Context()).Warn("health: database unreachable", "error", err)
		c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
