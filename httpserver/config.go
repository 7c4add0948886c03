package httpserver

import "time"

// Config holds HTTP surface settings.
type Config struct {
	CORSAllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	BodyLimit            string        `env:"HTTP_BODY_LIMIT" envDefault:"64K"`
	RequestTimeout       time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
	SlowRequestThreshold time.Duration `env:"HTTP_SLOW_REQUEST_THRESHOLD" envDefault:"5s"`
}

// DefaultConfig mirrors the environment defaults.
func DefaultConfig() Config {
	return Config{
		CORSAllowedOrigins:   []string{"*"},
		BodyLimit:            "64K",
		RequestTimeout:       60 * time.Second,
		SlowRequestThreshold: 5 * time.Second,
	}
}
