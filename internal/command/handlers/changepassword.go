// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opengate/opengate/internal/account"
	"github.com/opengate/opengate/internal/command"
)

// ChangePasswordHandler replaces the caller's password after verifying
// the current one.
func ChangePasswordHandler(ctx context.Context, exec *command.Execution) error {
	oldPassword, newPassword, ok := strings.Cut(strings.TrimSpace(exec.Args), " ")
	if !ok {
		fmt.Fprintln(exec.Output, "Usage: changepassword <old> <new>")
		return nil
	}
	newPassword = strings.TrimSpace(newPassword)

	acct, err := exec.Services.Accounts.Resolve(ctx, exec.PlayerName)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			fmt.Fprintln(exec.Output, "You are not registered.")
			return nil
		}
		fmt.Fprintln(exec.Output, "A database error occurred. Please try again later.")
		return err
	}

	match, err := exec.Services.Accounts.VerifySecret(acct, oldPassword)
	if err != nil {
		fmt.Fprintln(exec.Output, "Your account record is damaged. Contact an operator.")
		return err
	}
	if !match {
		fmt.Fprintln(exec.Output, "Incorrect password.")
		return nil
	}

	if err := exec.Services.Accounts.Register(ctx, exec.PlayerName, newPassword, exec.Address, true); err != nil {
		if errors.Is(err, account.ErrEmptyPassword) {
			fmt.Fprintln(exec.Output, "Your new password cannot be empty.")
			return nil
		}
		fmt.Fprintln(exec.Output, "A database error occurred. Please try again later.")
		return err
	}

	fmt.Fprintln(exec.Output, "Password changed.")
	return nil
}
