package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/assetmail/core/delivery"
	"github.com/dmitrymomot/assetmail/core/email"
	"github.com/dmitrymomot/assetmail/core/server"
	"github.com/dmitrymomot/assetmail/httpserver"
	"github.com/dmitrymomot/assetmail/integration/storage/s3"
)

// Email providers selectable with EMAIL_PROVIDER.
const (
	ProviderPostmark = "postmark"
	ProviderSMTP     = "smtp"
	ProviderDev      = "dev"
)

// ErrMissingSender is returned when neither SENDER_EMAIL nor SENDER_DOMAIN is set.
var ErrMissingSender = errors.New("sender address is not configured")

// Config is the process configuration. Provider credentials are loaded
// separately once EMAIL_PROVIDER is known.
type Config struct {
	Server server.Config
	HTTP   httpserver.Config
	S3     s3.S3Config

	AppName  string `env:"APP_NAME" envDefault:"assetmail"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	AllowedKeyPrefixes []string `env:"ALLOWED_KEY_PREFIXES" envSeparator:"," envDefault:"recordings/,transcriptions/"`
	EnforceTenancy     bool     `env:"ENFORCE_TENANCY" envDefault:"true"`

	AttachMaxMB       int64 `env:"ATTACH_MAX_MB" envDefault:"9"`
	TransportMaxBytes int64 `env:"TRANSPORT_MAX_BYTES" envDefault:"10485760"`
	MIMEOverheadBytes int64 `env:"MIME_OVERHEAD_BYTES" envDefault:"49152"`
	LinkTTLSeconds    int   `env:"LINK_TTL_SECONDS" envDefault:"86400"`

	SenderEmail   string `env:"SENDER_EMAIL"`
	SenderDomain  string `env:"SENDER_DOMAIN"`
	EmailSubject  string `env:"EMAIL_SUBJECT"`
	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"dev"`
	DevEmailDir   string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/emails"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`
	JWTIssuer     string `env:"JWT_ISSUER"`
}

// IsProduction reports whether APP_ENV selects production logging.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Sender resolves the From address. SENDER_EMAIL wins over SENDER_DOMAIN.
func (c Config) Sender() (string, error) {
	from := strings.TrimSpace(c.SenderEmail)
	if from == "" {
		domain := strings.Trim(strings.TrimSpace(c.SenderDomain), "@")
		if domain == "" {
			return "", ErrMissingSender
		}
		from = "no-reply@" + domain
	}
	if !email.IsValidAddress(from) {
		return "", fmt.Errorf("%w: %q", email.ErrInvalidConfig, from)
	}
	return from, nil
}

// Limits converts the size settings into delivery limits.
func (c Config) Limits() delivery.Limits {
	return delivery.Limits{
		MaxAttachmentBytes: c.AttachMaxMB * delivery.MiB,
		TransportCeiling:   c.TransportMaxBytes,
		MIMEOverhead:       c.MIMEOverheadBytes,
	}
}

// KeyPolicy returns the key validation rules.
func (c Config) KeyPolicy() delivery.KeyPolicy {
	prefixes := make([]string, 0, len(c.AllowedKeyPrefixes))
	for _, p := range c.AllowedKeyPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return delivery.KeyPolicy{EnforceTenancy: c.EnforceTenancy, AllowedPrefixes: prefixes}
}

// Delivery builds the delivery service configuration.
func (c Config) Delivery() (delivery.Config, error) {
	from, err := c.Sender()
	if err != nil {
		return delivery.Config{}, err
	}
	return delivery.Config{
		From:    from,
		Subject: strings.TrimSpace(c.EmailSubject),
		Keys:    c.KeyPolicy(),
		Limits:  c.Limits(),
		LinkTTL: time.Duration(c.LinkTTLSeconds) * time.Second,
	}, nil
}
