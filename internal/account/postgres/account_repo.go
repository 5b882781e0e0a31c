// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

// Package postgres implements account.Repository using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/opengate/opengate/internal/account"
)

// poolIface is the subset of pgxpool.Pool the repository uses.
// pgxmock satisfies it, keeping repository tests database-free.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements account.Repository using PostgreSQL.
// A single row per account; the upsert is atomic at the row level, which
// is the only cross-operation guarantee the service layer relies on.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Find retrieves an account by canonical key.
func (r *AccountRepository) Find(ctx context.Context, key string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT key, realname, password, address, lastlogin, regdate
		FROM accounts
		WHERE key = $1
	`, key)

	var acct account.Account
	err := row.Scan(
		&acct.Key,
		&acct.Realname,
		&acct.HashedPassword,
		&acct.LastAddress,
		&acct.LastLogin,
		&acct.RegDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("key", key).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, wrapPgError(err, "ACCOUNT_FIND_FAILED", "find account", key)
	}
	return &acct, nil
}

// Upsert creates or updates the account for name. The insert sets both
// regdate and lastlogin; the conflict branch deliberately leaves realname
// and regdate untouched.
func (r *AccountRepository) Upsert(ctx context.Context, name, hashedPassword, address string, now time.Time) error {
	key := account.CanonicalKey(name)
	if address == "" {
		address = account.DefaultAddress
	}
	millis := now.UnixMilli()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (key, realname, password, address, lastlogin, regdate)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			password = EXCLUDED.password,
			address = EXCLUDED.address,
			lastlogin = EXCLUDED.lastlogin
	`, key, name, hashedPassword, address, millis, millis)
	if err != nil {
		return wrapPgError(err, "ACCOUNT_UPSERT_FAILED", "upsert account", key)
	}
	return nil
}

// Delete removes an account by canonical key. Returns whether a row
// existed; deleting a missing key is not an error.
func (r *AccountRepository) Delete(ctx context.Context, key string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM accounts WHERE key = $1
	`, key)
	if err != nil {
		return false, wrapPgError(err, "ACCOUNT_DELETE_FAILED", "delete account", key)
	}
	return result.RowsAffected() > 0, nil
}

// wrapPgError wraps a pgx error with operation context, attaching the
// server-side SQLSTATE when present so operators can tell a constraint
// violation from a connectivity failure in the logs.
func wrapPgError(err error, code, operation, key string) error {
	builder := oops.Code(code).
		With("operation", operation).
		With("key", key)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		builder = builder.With("pg_code", pgErr.Code)
		if pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			builder = builder.With("constraint", pgErr.ConstraintName)
		}
	}
	return builder.Wrap(err)
}

// Compile-time interface check.
var _ account.Repository = (*AccountRepository)(nil)
