package email

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// EmailSender delivers structured messages and returns the provider message ID.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) (string, error)
}

// RawEmailSender delivers a fully-formed RFC 5322 message and returns the provider message ID.
type RawEmailSender interface {
	SendRawEmail(ctx context.Context, params RawEmailParams) (string, error)
}

// Sink is an email provider supporting both structured and raw submissions.
type Sink interface {
	EmailSender
	RawEmailSender
}

// SendEmailParams describes a structured message.
// From is optional; providers fall back to their configured sender.
type SendEmailParams struct {
	From     string
	SendTo   string
	Subject  string
	BodyText string
	BodyHTML string
	Tag      string
}

// Validate checks required fields.
func (p SendEmailParams) Validate() error {
	var errs []error
	if p.SendTo == "" {
		errs = append(errs, errors.New("recipient email is required"))
	} else if !IsValidAddress(p.SendTo) {
		errs = append(errs, fmt.Errorf("invalid recipient email: %s", p.SendTo))
	}
	if p.From != "" && !IsValidAddress(p.From) {
		errs = append(errs, fmt.Errorf("invalid sender email: %s", p.From))
	}
	if p.Subject == "" {
		errs = append(errs, errors.New("subject is required"))
	}
	if p.BodyHTML == "" && p.BodyText == "" {
		errs = append(errs, errors.New("email body is required"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidParams}, errs...)...)
	}
	return nil
}

// RawEmailParams describes a raw MIME submission. SendTo is the envelope recipient.
type RawEmailParams struct {
	From   string
	SendTo string
	Raw    []byte
	Tag    string
}

// Validate checks required fields.
func (p RawEmailParams) Validate() error {
	var errs []error
	if p.SendTo == "" {
		errs = append(errs, errors.New("recipient email is required"))
	} else if !IsValidAddress(p.SendTo) {
		errs = append(errs, fmt.Errorf("invalid recipient email: %s", p.SendTo))
	}
	if p.From != "" && !IsValidAddress(p.From) {
		errs = append(errs, fmt.Errorf("invalid sender email: %s", p.From))
	}
	if len(p.Raw) == 0 {
		errs = append(errs, errors.New("raw message is required"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidParams}, errs...)...)
	}
	return nil
}

// emailRegex is a simple regex for validating email addresses.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidAddress checks if the provided string is a bare valid email address.
func IsValidAddress(addr string) bool {
	return emailRegex.MatchString(addr)
}
