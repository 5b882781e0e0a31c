// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

// Package command provides the command registry and dispatch system for
// the authenticated console surface.
package command

import (
	"context"
	"io"

	"github.com/opengate/opengate/internal/account"
	"github.com/opengate/opengate/internal/session"
)

// Handler is the function signature for command handlers.
type Handler func(ctx context.Context, exec *Execution) error

// Entry is a registered command.
type Entry struct {
	Name     string  // canonical name (e.g. "unregister")
	Handler  Handler // implementation
	Operator bool    // restricted to operator connections
	Help     string  // short description (one line)
	Usage    string  // usage pattern (e.g. "unregister <password>")
}

// Execution carries per-invocation state into a handler.
type Execution struct {
	// PlayerName is the authenticated player in display casing.
	PlayerName string

	// Address is the connection's network origin.
	Address string

	// Operator marks a privileged connection; operator-only commands
	// are hidden from everyone else.
	Operator bool

	// Args is everything after the command name, unparsed.
	Args string

	Output   io.Writer
	Services *Services
}

// Services provides the core services handlers may use. Handlers must
// not retain references beyond the execution.
type Services struct {
	Accounts *account.Service
	Sessions *session.Manager
}
