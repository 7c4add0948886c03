package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrymomot/assetmail/core/health"
	"github.com/dmitrymomot/assetmail/core/logger"
)

// Deps are the collaborators wired into the router.
type Deps struct {
	Deliveries Deliverer
	Verifier   Verifier
	Logger     *slog.Logger
	// Metrics is served on /metrics and wraps every request when set.
	Metrics MetricsProvider
	// ReadinessChecks back /readyz.
	ReadinessChecks []func(context.Context) error
}

// MetricsProvider exposes Prometheus handlers.
type MetricsProvider interface {
	Handler() http.Handler
	HTTPMiddleware() echo.MiddlewareFunc
}

// New builds the echo application:
//
//	POST /v1/deliveries  bearer-authenticated delivery request
//	GET  /healthz        liveness
//	GET  /readyz         readiness
//	GET  /metrics        Prometheus exposition
func New(cfg Config, deps Deps) *echo.Echo {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log, cfg.SlowRequestThreshold, isProbe))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.HTTPMiddleware())
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	e.GET("/healthz", health.Liveness)
	e.GET("/readyz", health.Readiness(log, deps.ReadinessChecks...))
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	api := e.Group("/v1")
	if cfg.BodyLimit != "" {
		api.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	if cfg.RequestTimeout > 0 {
		api.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: cfg.RequestTimeout,
		}))
	}
	api.Use(bearerAuth(deps.Verifier))
	api.POST("/deliveries", createDelivery(deps.Deliveries))

	return e
}

func isProbe(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/healthz" || p == "/readyz" || strings.HasPrefix(p, "/metrics")
}
