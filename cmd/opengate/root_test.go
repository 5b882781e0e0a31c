// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	t.Run("has expected subcommands", func(t *testing.T) {
		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		assert.True(t, names["serve"], "serve subcommand missing")
		assert.True(t, names["migrate"], "migrate subcommand missing")
	})

	t.Run("has config flag", func(t *testing.T) {
		flag := cmd.PersistentFlags().Lookup("config")
		require.NotNil(t, flag)
	})

	t.Run("help executes", func(t *testing.T) {
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"--help"})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "opengate")
	})
}

func TestServeCmdFlags(t *testing.T) {
	cmd := NewServeCmd()

	for _, name := range []string{"database-url", "listen-addr", "metrics-addr", "log-format", "cache-ttl", "bcrypt-cost", "auto-migrate"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s missing", name)
	}
}

func TestMigrateDatabaseURL(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		cmd := NewMigrateCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--database-url", "postgres://flag/db"}))

		url, err := migrateDatabaseURL(cmd)
		require.NoError(t, err)
		assert.Equal(t, "postgres://flag/db", url)
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://env/db")
		cmd := NewMigrateCmd()

		url, err := migrateDatabaseURL(cmd)
		require.NoError(t, err)
		assert.Equal(t, "postgres://env/db", url)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		cmd := NewMigrateCmd()

		_, err := migrateDatabaseURL(cmd)
		require.Error(t, err)
	})
}
