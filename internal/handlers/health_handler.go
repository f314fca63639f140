package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"empire/internal/logger"
	"empire/internal/middleware"
)

// HealthHandler reports process and store liveness.
type HealthHandler struct {
	check func(ctx context.Context) error
}

// NewHealthHandler creates a HealthHandler. A nil check always reports ok.
func NewHealthHandler(check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{check: check}
}

// HealthResponse is the health payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports whether the API can reach its store
// @Summary     Health check
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse "Healthy"
// @Failure     503 {object} HealthResponse "Store unreachable"
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.check != nil {
		if err := h.check(c.Request.Context()); err != nil {
			logger.Get().Warnw("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, middleware.Envelope{
				Success: false,
				Data:    HealthResponse{Status: "degraded", Database: "unreachable"},
				Message: "database unreachable",
			})
			return
		}
	}
	respondOK(c, HealthResponse{Status: "ok", Database: "ok"})
}
