package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/assetmail/core/health"
	"github.com/dmitrymomot/assetmail/core/logger"
)

func serve(h echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	rec := serve(health.Liveness)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())

	assert.Equal(t, http.StatusNoContent, serve(health.NoContent).Code)
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("bucket unreachable") }

	tests := []struct {
		name   string
		checks []func(context.Context) error
		code   int
		body   string
	}{
		{"no checks", nil, http.StatusOK, "READY"},
		{"all pass", []func(context.Context) error{ok, ok}, http.StatusOK, "READY"},
		{"one fails", []func(context.Context) error{ok, fail}, http.StatusServiceUnavailable, "NOT READY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(health.Readiness(logger.Nop(), tt.checks...))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}
