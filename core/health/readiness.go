package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmitrymomot/assetmail/core/logger"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 5 * time.Second

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
//
// Example:
//
//	e.GET("/readyz", health.Readiness(log, store.Ping))
func Readiness(log *slog.Logger, fn ...func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), DefaultCheckTimeout)
		defer cancel()

		for _, f := range fn {
			if err := f(ctx); err != nil {
				log.ErrorContext(ctx, "Readiness check failed", logger.Component("health"), logger.Error(err))
				return c.String(http.StatusServiceUnavailable, "NOT READY")
			}
		}

		return c.String(http.StatusOK, "READY")
	}
}
