// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

// Package config loads service configuration from defaults, an optional YAML
// file, and command-line flags, in that order of precedence (flags win).
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// MinSessionSecretLength is the minimum accepted session secret length in bytes.
const MinSessionSecretLength = 32

// Config holds the service configuration.
type Config struct {
	// ListenAddr is the HTTP API listen address.
	ListenAddr string `koanf:"listen_addr"`

	// MetricsAddr is the observability server address. Empty disables it.
	MetricsAddr string `koanf:"metrics_addr"`

	// DatabaseURL is the PostgreSQL connection string. Required unless Dev.
	DatabaseURL string `koanf:"database_url"`

	// SessionSecret signs session tokens. Must be at least
	// MinSessionSecretLength bytes.
	SessionSecret string `koanf:"session_secret"`

	// SessionTTL is the lifetime of issued session tokens.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// SecureCookies marks session cookies Secure.
	SecureCookies bool `koanf:"secure_cookies"`

	// RequestTimeout bounds each API request.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// LogLevel is "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level"`

	// Dev runs with an in-memory user store and relaxed validation.
	// Never enable in production.
	Dev bool `koanf:"dev"`
}

// defaults returns the baseline configuration.
func defaults() map[string]any {
	return map[string]any{
		"listen_addr":     ":8080",
		"metrics_addr":    "127.0.0.1:9100",
		"database_url":    "",
		"session_secret":  "",
		"session_ttl":     "24h",
		"secure_cookies":  true,
		"request_timeout": "10s",
		"log_format":      "json",
		"log_level":       "info",
		"dev":             false,
	}
}

// Load layers defaults, an optional YAML config file, and pflag values.
// Pass an empty path to skip the file layer; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		// Flags are kebab-case on the command line but map onto the
		// snake_case keys used by the file and defaults layers.
		provider := posflag.ProviderWithValue(flags, ".", k,
			func(key, value string) (string, any) {
				return strings.ReplaceAll(key, "-", "_"), value
			})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable. Dev mode relaxes the
// database and secret requirements so the service can run standalone.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen_addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session_ttl must be positive")
	}
	if c.RequestTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("request_timeout must be positive")
	}

	if c.Dev {
		return nil
	}

	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required outside dev mode")
	}
	if len(c.SessionSecret) < MinSessionSecretLength {
		return oops.Code("CONFIG_INVALID").
			With("min_bytes", MinSessionSecretLength).
			Errorf("session_secret must be at least %d bytes", MinSessionSecretLength)
	}
	return nil
}
