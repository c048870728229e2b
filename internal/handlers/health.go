package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB Pinger
}

func (h *HealthHandler) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		logging.FromContext(ctx).Error("readiness_failed", "error", err)
		return apperr.Internal(err)
	}
	return c.NoContent(http.StatusOK)
}
