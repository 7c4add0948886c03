package email

import "errors"

var (
	// ErrFailedToSendEmail wraps transport and provider rejections.
	ErrFailedToSendEmail = errors.New("failed to send email")
	// ErrInvalidConfig reports missing credentials or a bad sender address.
	ErrInvalidConfig = errors.New("invalid email configuration")
	// ErrInvalidParams reports a message rejected before any network call.
	ErrInvalidParams = errors.New("invalid email parameters")
	// ErrUnknownProvider is returned for an unrecognized EMAIL_PROVIDER.
	ErrUnknownProvider = errors.New("unknown email provider")
)
