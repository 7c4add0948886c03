package mimemail

import "errors"

var (
	ErrMissingFrom     = errors.New("mimemail: sender address is required")
	ErrMissingTo       = errors.New("mimemail: recipient address is required")
	ErrInvalidBoundary = errors.New("mimemail: could not produce a usable boundary")
	ErrMalformed       = errors.New("mimemail: malformed message")
)
