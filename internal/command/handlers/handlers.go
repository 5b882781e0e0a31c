// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

// Package handlers implements the built-in console commands.
package handlers

import (
	"github.com/opengate/opengate/internal/command"
)

// RegisterAll registers all built-in command handlers with the registry.
// Panics if any registration fails (indicates a programming error).
func RegisterAll(reg *command.Registry) {
	mustRegister := func(entry command.Entry) {
		if err := reg.Register(entry); err != nil {
			panic("failed to register command " + entry.Name + ": " + err.Error())
		}
	}

	mustRegister(command.Entry{
		Name:    "unregister",
		Handler: UnregisterHandler,
		Help:    "Delete your account (operators: delete any player's account)",
		Usage:   "unregister <password> | unregister <player>",
	})

	mustRegister(command.Entry{
		Name:    "changepassword",
		Handler: ChangePasswordHandler,
		Help:    "Change your password",
		Usage:   "changepassword <old> <new>",
	})

	mustRegister(command.Entry{
		Name:    "who",
		Handler: WhoHandler,
		Help:    "See who is online",
		Usage:   "who",
	})
}
