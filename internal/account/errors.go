// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package account

import "errors"

// ErrNotFound is returned when no account exists for a key.
// It is a normal outcome of Resolve, not a failure.
var ErrNotFound = errors.New("account not found")

// ErrAlreadyRegistered is returned when registering a name that already
// has an account and overwriting was not requested.
var ErrAlreadyRegistered = errors.New("account already registered")

// ErrEmptyPassword is returned when a register or password change is
// attempted with an empty or whitespace-only password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// ErrMalformedHash is returned when a stored password hash fails the
// expected-format check. This is a data-integrity fault and is kept
// distinct from a plain password mismatch so the two can never be
// confused by callers.
var ErrMalformedHash = errors.New("malformed password hash")
