// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the OpenGate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opengate",
		Short: "OpenGate - account registration and login for game servers",
		Long: `OpenGate manages player accounts for line-based game servers:
registration, login verification, password changes, and account removal,
backed by PostgreSQL with a short-lived in-memory cache.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
