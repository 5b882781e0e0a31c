// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/opengate/opengate/internal/account"
	"github.com/opengate/opengate/internal/command"
)

// UnregisterHandler deletes an account. Players delete their own account
// and must confirm with their password; operators name the player to
// delete and no password is required.
func UnregisterHandler(ctx context.Context, exec *command.Execution) error {
	arg := strings.TrimSpace(exec.Args)
	if arg == "" {
		if exec.Operator {
			fmt.Fprintln(exec.Output, "Usage: unregister <player>")
		} else {
			fmt.Fprintln(exec.Output, "Usage: unregister <password>")
		}
		return nil
	}

	if exec.Operator {
		return operatorUnregister(ctx, exec, arg)
	}
	return selfUnregister(ctx, exec, arg)
}

func operatorUnregister(ctx context.Context, exec *command.Execution, name string) error {
	existed, err := exec.Services.Accounts.Unregister(ctx, name)
	if err != nil {
		fmt.Fprintln(exec.Output, "A database error occurred. Please try again later.")
		return err
	}
	if !existed {
		fmt.Fprintf(exec.Output, "Player %s is not registered.\n", name)
		return nil
	}
	fmt.Fprintf(exec.Output, "Unregistered %s.\n", name)
	return nil
}

func selfUnregister(ctx context.Context, exec *command.Execution, password string) error {
	outcome, err := exec.Services.Accounts.VerifyAndUnregister(ctx, exec.PlayerName, password)
	if err != nil {
		fmt.Fprintln(exec.Output, "A database error occurred. Please try again later.")
		return err
	}

	switch outcome {
	case account.OutcomeNotRegistered:
		fmt.Fprintln(exec.Output, "You are not registered.")
	case account.OutcomeIncorrectPassword:
		fmt.Fprintln(exec.Output, "Incorrect password.")
	case account.OutcomeSuccess:
		fmt.Fprintln(exec.Output, "Your account has been deleted.")
	}
	return nil
}
