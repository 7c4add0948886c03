package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmitrymomot/assetmail/core/delivery"
	"github.com/dmitrymomot/assetmail/core/logger"
)

const ctxSubjectKey = "auth_subject"

// Verifier resolves an Authorization header to a caller subject.
type Verifier interface {
	VerifyHeader(header string) (string, error)
}

// bearerAuth rejects requests without a valid bearer token and stores the
// subject in the echo context.
func bearerAuth(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject, err := v.VerifyHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return &delivery.Error{Kind: delivery.KindUnauthorized, Message: "missing or invalid bearer token", Err: err}
			}
			c.Set(ctxSubjectKey, subject)
			return next(c)
		}
	}
}

// Subject returns the authenticated subject set by bearerAuth.
func Subject(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxSubjectKey).(string)
	return s, ok && s != ""
}

// requestLogger logs one line per request. Requests slower than slow are
// logged at warn level, server errors at error level.
func requestLogger(log *slog.Logger, slow time.Duration, skip func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// Resolve the final status before logging.
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)

			attrs := []slog.Attr{
				logger.Component("http"),
				logger.RequestID(c.Response().Header().Get(echo.HeaderXRequestID)),
				logger.Method(req.Method),
				logger.Path(req.URL.Path),
				logger.StatusCode(status),
				logger.Duration(elapsed),
				slog.Int64("bytes_out", c.Response().Size),
			}
			if subject, ok := Subject(c); ok {
				attrs = append(attrs, logger.Subject(subject))
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case slow > 0 && elapsed > slow:
				level = slog.LevelWarn
			}

			log.LogAttrs(req.Context(), level, "http request", attrs...)
			return nil
		}
	}
}
