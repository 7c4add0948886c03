package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmitrymomot/assetmail/core/delivery"
	"github.com/dmitrymomot/assetmail/core/logger"
)

// Binding failures.
var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrMissingContentType   = errors.New("missing content type")
)

// HTTPError is the JSON error body returned to clients.
type HTTPError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e HTTPError) Error() string {
	return e.Message
}

// toHTTPError maps any handler error to a client-safe response.
// Internal causes are never exposed.
func toHTTPError(err error) HTTPError {
	var de *delivery.Error
	if errors.As(err, &de) {
		msg := de.Message
		if de.Kind.HTTPStatus() >= http.StatusInternalServerError {
			msg = http.StatusText(de.Kind.HTTPStatus())
		}
		return HTTPError{Status: de.Kind.HTTPStatus(), Code: string(de.Kind), Message: msg}
	}

	var he HTTPError
	if errors.As(err, &he) {
		return he
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		msg, ok := ee.Message.(string)
		if !ok {
			msg = http.StatusText(ee.Code)
		}
		return HTTPError{Status: ee.Code, Code: codeForStatus(ee.Code), Message: msg}
	}

	return HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    string(delivery.KindInternal),
		Message: http.StatusText(http.StatusInternalServerError),
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(delivery.KindMalformedRequest)
	case http.StatusUnauthorized:
		return string(delivery.KindUnauthorized)
	case http.StatusForbidden:
		return string(delivery.KindForbidden)
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		if status >= http.StatusInternalServerError {
			return string(delivery.KindInternal)
		}
		return "error"
	}
}

// errorHandler writes HTTPError JSON and logs server-side failures with their cause.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		he := toHTTPError(err)
		if he.Status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				logger.RequestID(c.Response().Header().Get(echo.HeaderXRequestID)),
				logger.Path(c.Request().URL.Path),
				logger.StatusCode(he.Status),
				logger.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Status)
			return
		}
		_ = c.JSON(he.Status, he)
	}
}
