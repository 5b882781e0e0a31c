// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package handlers

import (
	"context"
	"fmt"

	"github.com/opengate/opengate/internal/command"
)

// WhoHandler lists connected players.
func WhoHandler(_ context.Context, exec *command.Execution) error {
	sessions := exec.Services.Sessions.List()
	if len(sessions) == 0 {
		fmt.Fprintln(exec.Output, "Nobody is online.")
		return nil
	}

	fmt.Fprintf(exec.Output, "%d online:\n", len(sessions))
	for _, sess := range sessions {
		fmt.Fprintf(exec.Output, "  %s (connected %s)\n", sess.PlayerName, sess.ConnectedAt.Format("15:04:05"))
	}
	return nil
}
