package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/assetmail/core/delivery"
	"github.com/dmitrymomot/assetmail/core/email"
	"github.com/dmitrymomot/assetmail/core/logger"
	"github.com/dmitrymomot/assetmail/core/metrics"
	"github.com/dmitrymomot/assetmail/core/server"
	"github.com/dmitrymomot/assetmail/core/storage"
	"github.com/dmitrymomot/assetmail/httpserver"
	"github.com/dmitrymomot/assetmail/integration/storage/s3"
	"github.com/dmitrymomot/assetmail/pkg/jwt"
)

// App wires configuration, collaborators and the HTTP surface.
type App struct {
	config   Config
	logger   *slog.Logger
	store    storage.Storage
	sink     email.Sink
	registry *prometheus.Registry
	handler  http.Handler
	server   *server.Server
}

type AppOption func(*App) error

// New builds the application from cfg. Collaborators not supplied through
// options are created from the configuration.
func New(ctx context.Context, cfg Config, opts ...AppOption) (*App, error) {
	app := &App{config: cfg}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.logger == nil {
		app.logger = newLogger(cfg)
	}

	if app.store == nil {
		st, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		app.store = st
	}

	deliveryCfg, err := cfg.Delivery()
	if err != nil {
		return nil, err
	}

	if app.sink == nil {
		sink, err := NewSink(cfg.EmailProvider, deliveryCfg.From, cfg.DevEmailDir)
		if err != nil {
			return nil, err
		}
		app.sink = sink
	}

	if app.registry == nil {
		app.registry = prometheus.NewRegistry()
		app.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.New(app.registry)

	verifier, err := jwt.NewFromString(cfg.JWTSigningKey, jwt.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return nil, err
	}

	svc, err := delivery.NewService(deliveryCfg, app.store, app.sink,
		delivery.WithLogger(app.logger),
		delivery.WithRecorder(m),
	)
	if err != nil {
		return nil, err
	}

	var checks []func(context.Context) error
	if p, ok := app.store.(interface{ Ping(context.Context) error }); ok {
		checks = append(checks, p.Ping)
	}

	app.handler = httpserver.New(cfg.HTTP, httpserver.Deps{
		Deliveries:      svc,
		Verifier:        verifier,
		Logger:          app.logger,
		Metrics:         m,
		ReadinessChecks: checks,
	})

	if app.server == nil {
		s, err := server.NewFromConfig(cfg.Server, server.WithLogger(app.logger))
		if err != nil {
			return nil, err
		}
		app.server = s
	}

	app.logger.Info("application configured",
		logger.Component("app"),
		slog.String("email_provider", cfg.EmailProvider),
		slog.Bool("enforce_tenancy", cfg.EnforceTenancy),
		logger.Bytes("attach_max_bytes", deliveryCfg.Limits.MaxAttachmentBytes),
		logger.Bytes("transport_max_bytes", deliveryCfg.Limits.TransportCeiling),
	)

	return app, nil
}

// Handler returns the HTTP handler. Useful for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx, a.handler)()
}

func newLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{logger.WithDevelopment(cfg.AppName)}
	if cfg.IsProduction() {
		opts = []logger.Option{logger.WithProduction(cfg.AppName)}
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	return logger.New(opts...)
}

func WithLogger(l *slog.Logger) AppOption {
	return func(app *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = l
		return nil
	}
}

func WithStorage(st storage.Storage) AppOption {
	return func(app *App) error {
		if st == nil {
			return errors.New("storage cannot be nil")
		}
		app.store = st
		return nil
	}
}

func WithSink(sink email.Sink) AppOption {
	return func(app *App) error {
		if sink == nil {
			return errors.New("email sink cannot be nil")
		}
		app.sink = sink
		return nil
	}
}

func WithRegistry(reg *prometheus.Registry) AppOption {
	return func(app *App) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		app.registry = reg
		return nil
	}
}

func WithServer(s *server.Server) AppOption {
	return func(app *App) error {
		if s == nil {
			return errors.New("server cannot be nil")
		}
		app.server = s
		return nil
	}
}
