// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

// Package config loads process configuration from a YAML file and
// command-line flags. Flags set by the user win over the file; the file
// wins over flag defaults.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all process configuration.
type Config struct {
	DatabaseURL string        `koanf:"database_url"`
	ListenAddr  string        `koanf:"listen_addr"`
	MetricsAddr string        `koanf:"metrics_addr"`
	LogFormat   string        `koanf:"log_format"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
	BcryptCost  int           `koanf:"bcrypt_cost"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		ListenAddr:  "127.0.0.1:4201",
		MetricsAddr: "127.0.0.1:9100",
		LogFormat:   "json",
		CacheTTL:    30 * time.Second,
		BcryptCost:  bcrypt.DefaultCost,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.CacheTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("cache_ttl must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return oops.Code("CONFIG_INVALID").
			Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// RegisterFlags declares the configuration flags on the given set.
// Flag defaults are the built-in defaults; posflag only overrides a
// file-provided value when the user actually set the flag.
func RegisterFlags(flags *pflag.FlagSet) {
	def := Default()
	flags.String("database-url", def.DatabaseURL, "PostgreSQL connection URL")
	flags.String("listen-addr", def.ListenAddr, "console listen address")
	flags.String("metrics-addr", def.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", def.LogFormat, "log format (json or text)")
	flags.Duration("cache-ttl", def.CacheTTL, "account cache time-to-live")
	flags.Int("bcrypt-cost", def.BcryptCost, "bcrypt hashing cost")
}

// Load reads configuration from the optional YAML file at path, then
// overlays the flag set. Flag names use dashes ("database-url"); they
// map to the underscored config keys.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "flags").
				Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
