package app

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/assetmail/core/config"
	"github.com/dmitrymomot/assetmail/core/email"
	"github.com/dmitrymomot/assetmail/integration/email/postmark"
	"github.com/dmitrymomot/assetmail/integration/email/smtp"
)

// NewSink builds the email sink named by provider. Provider credentials are
// read from the environment; the resolved sender fills an empty SenderEmail.
func NewSink(provider, sender, devDir string) (email.Sink, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderPostmark:
		var cfg postmark.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		if cfg.SenderEmail == "" {
			cfg.SenderEmail = sender
		}
		client, err := postmark.New(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderSMTP:
		var cfg smtp.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		if cfg.SenderEmail == "" {
			cfg.SenderEmail = sender
		}
		client, err := smtp.New(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderDev, "":
		return email.NewDevSender(devDir), nil
	default:
		return nil, fmt.Errorf("%w: %q", email.ErrUnknownProvider, provider)
	}
}
