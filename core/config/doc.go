// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
//	type DeliveryConfig struct {
//		AttachMaxMB int  `env:"ATTACH_MAX_MB" envDefault:"9"`
//		Tenancy     bool `env:"ENFORCE_TENANCY" envDefault:"true"`
//	}
//
//	var cfg DeliveryConfig
//	config.MustLoad(&cfg)
package config
