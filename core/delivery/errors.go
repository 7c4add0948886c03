package delivery

import (
	"errors"
	"net/http"
)

// Kind is a stable, client-facing error category.
type Kind string

const (
	KindUnauthorized     Kind = "unauthorized"
	KindInvalidKey       Kind = "invalid_key"
	KindForbidden        Kind = "forbidden"
	KindAssetNotFound    Kind = "asset_not_found"
	KindMalformedRequest Kind = "malformed_request"
	KindDispatchFailure  Kind = "dispatch_failure"
	KindInternal         Kind = "internal"
)

// HTTPStatus maps the kind to a response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInvalidKey, KindMalformedRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindAssetNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a terminal delivery failure. Message is safe to return to clients;
// Err carries the internal cause for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so sentinels below match any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrInvalidKey       = &Error{Kind: KindInvalidKey, Message: "invalid key"}
	ErrForbidden        = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrAssetNotFound    = &Error{Kind: KindAssetNotFound, Message: "asset not found"}
	ErrMalformedRequest = &Error{Kind: KindMalformedRequest, Message: "malformed request"}
	ErrDispatchFailure  = &Error{Kind: KindDispatchFailure, Message: "dispatch failure"}
	ErrInternal         = &Error{Kind: KindInternal, Message: "internal error"}
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
