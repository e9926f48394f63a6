package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

// readyTimeout bounds the token fetch behind /readyz so a slow token
// endpoint fails the probe instead of hanging it.
const readyTimeout = 5 * time.Second

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	tokens      ebay.TokenProvider
	environment string
}

// NewHealthHandler returns probes for tokens. environment is reported by
// /readyz ("production" or "sandbox").
func NewHealthHandler(tokens ebay.TokenProvider, environment string) *HealthHandler {
	return &HealthHandler{tokens: tokens, environment: environment}
}

// Healthz returns 200 while the process is serving.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 when an application token can be obtained and 503
// with the reason otherwise. A cached token answers without calling eBay.
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()

	if _, err := h.tokens.Token(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{
			Status:      "unavailable",
			Environment: h.environment,
			Error:       err.Error(),
		})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready", Environment: h.environment})
}
