// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/opengate/opengate/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	return flags
}

func TestDefault(t *testing.T) {
	def := config.Default()
	assert.Equal(t, "127.0.0.1:4201", def.ListenAddr)
	assert.Equal(t, "127.0.0.1:9100", def.MetricsAddr)
	assert.Equal(t, "json", def.LogFormat)
	assert.Equal(t, 30*time.Second, def.CacheTTL)
	assert.Equal(t, bcrypt.DefaultCost, def.BcryptCost)
	assert.Empty(t, def.DatabaseURL)
}

func TestValidate(t *testing.T) {
	valid := config.Default()
	valid.DatabaseURL = "postgres://localhost/opengate"

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("missing database URL", func(t *testing.T) {
		cfg := valid
		cfg.DatabaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log format", func(t *testing.T) {
		cfg := valid
		cfg.LogFormat = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive cache TTL", func(t *testing.T) {
		cfg := valid
		cfg.CacheTTL = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("out-of-range bcrypt cost", func(t *testing.T) {
		cfg := valid
		cfg.BcryptCost = bcrypt.MaxCost + 1
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	t.Run("file values override flag defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
database_url: postgres://db.example/opengate
listen_addr: 0.0.0.0:4201
cache_ttl: 45s
`)
		cfg, err := config.Load(path, newFlagSet())
		require.NoError(t, err)
		assert.Equal(t, "postgres://db.example/opengate", cfg.DatabaseURL)
		assert.Equal(t, "0.0.0.0:4201", cfg.ListenAddr)
		assert.Equal(t, 45*time.Second, cfg.CacheTTL)
		// Untouched keys keep their defaults.
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("set flags override file values", func(t *testing.T) {
		path := writeConfigFile(t, `
database_url: postgres://db.example/opengate
listen_addr: 0.0.0.0:4201
`)
		flags := newFlagSet()
		require.NoError(t, flags.Parse([]string{"--listen-addr", "127.0.0.1:5000"}))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:5000", cfg.ListenAddr)
		assert.Equal(t, "postgres://db.example/opengate", cfg.DatabaseURL)
	})

	t.Run("flags alone suffice", func(t *testing.T) {
		flags := newFlagSet()
		require.NoError(t, flags.Parse([]string{"--database-url", "postgres://localhost/opengate"}))

		cfg, err := config.Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/opengate", cfg.DatabaseURL)
		assert.Equal(t, "127.0.0.1:4201", cfg.ListenAddr)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := config.Load("/nonexistent/config.yaml", newFlagSet())
		assert.Error(t, err)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		path := writeConfigFile(t, `
database_url: postgres://localhost/opengate
log_format: xml
`)
		_, err := config.Load(path, newFlagSet())
		assert.Error(t, err)
	})

	t.Run("missing database URL is rejected", func(t *testing.T) {
		_, err := config.Load("", newFlagSet())
		assert.Error(t, err)
	})
}
