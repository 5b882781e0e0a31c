// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package account

import (
	"context"
	"strings"
	"time"
)

// DefaultAddress is stored when a player's network origin is unknown.
const DefaultAddress = "127.0.0.1"

// Account is one registered credential record.
type Account struct {
	// Key is the lower-cased player name. All storage and cache lookups
	// use this key, never Realname.
	Key string

	// Realname is the player name in its originally-registered casing.
	// Immutable after creation.
	Realname string

	// HashedPassword is the bcrypt hash of the player's password,
	// always carrying the "$2" marker.
	HashedPassword string

	// LastAddress is the last known network origin.
	LastAddress string

	// LastLogin and RegDate are epoch milliseconds.
	LastLogin int64
	RegDate   int64
}

// CanonicalKey returns the storage key for a player name.
func CanonicalKey(name string) string {
	return strings.ToLower(name)
}

// Repository manages account persistence. All operations are keyed by
// the canonical (lower-cased) name and must be safe for concurrent use.
type Repository interface {
	// Find retrieves an account by canonical key.
	// Returns an error wrapping ErrNotFound when no account exists.
	Find(ctx context.Context, key string) (*Account, error)

	// Upsert creates or updates the account for name. On insert both
	// regdate and lastlogin are set to now; on update only the password,
	// address, and lastlogin change. Realname and regdate are immutable.
	Upsert(ctx context.Context, name, hashedPassword, address string, now time.Time) error

	// Delete removes an account by canonical key. Returns whether a
	// record existed; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) (bool, error)
}
