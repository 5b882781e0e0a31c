// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package account

import (
	"errors"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// hashMarker is the prefix every stored bcrypt hash carries
// ("$2a$", "$2b$", "$2y$" all share it). A stored hash without it is a
// data-integrity fault, not a wrong password.
const hashMarker = "$2"

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted bcrypt hash of the password. The same
	// password hashed twice yields different outputs.
	Hash(password string) (string, error)

	// Verify checks the password against a stored hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an
	// error wrapping ErrMalformedHash when the stored hash fails the
	// format check.
	Verify(password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the default cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// NewBcryptHasherWithCost creates a BcryptHasher with an explicit cost.
func NewBcryptHasherWithCost(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code("ACCOUNT_INVALID_COST").
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash produces a salted bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", oops.Code("ACCOUNT_EMPTY_PASSWORD").Wrap(ErrEmptyPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("ACCOUNT_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify checks the password against a stored bcrypt hash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	if !strings.HasPrefix(hash, hashMarker) {
		return false, oops.Code("ACCOUNT_MALFORMED_HASH").Wrap(ErrMalformedHash)
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	// Anything else means the stored hash itself is unusable
	// (truncated, bad cost field, wrong structure).
	return false, oops.Code("ACCOUNT_MALFORMED_HASH").Wrap(ErrMalformedHash)
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)
