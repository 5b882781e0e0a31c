// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengate/opengate/internal/account"
	"github.com/opengate/opengate/pkg/errutil"
)

const (
	findQuery   = `SELECT key, realname, password, address, lastlogin, regdate`
	upsertQuery = `INSERT INTO accounts`
	deleteQuery = `DELETE FROM accounts`
)

func newMockRepo(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return NewAccountRepository(mock), mock
}

func TestFind(t *testing.T) {
	ctx := context.Background()

	t.Run("returns account", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(findQuery).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows([]string{"key", "realname", "password", "address", "lastlogin", "regdate"}).
				AddRow("alice", "Alice", "$2a$10$hash", "10.0.0.1", int64(1700000001000), int64(1700000000000)))

		acct, err := repo.Find(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", acct.Key)
		assert.Equal(t, "Alice", acct.Realname)
		assert.Equal(t, "$2a$10$hash", acct.HashedPassword)
		assert.Equal(t, "10.0.0.1", acct.LastAddress)
		assert.Equal(t, int64(1700000001000), acct.LastLogin)
		assert.Equal(t, int64(1700000000000), acct.RegDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row wraps ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(findQuery).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Find(ctx, "ghost")
		require.ErrorIs(t, err, account.ErrNotFound)
		errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("query failure is wrapped", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(findQuery).
			WithArgs("alice").
			WillReturnError(errors.New("connection refused"))

		_, err := repo.Find(ctx, "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, account.ErrNotFound)
		errutil.AssertErrorCode(t, err, "ACCOUNT_FIND_FAILED")
	})
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("canonicalizes key and keeps realname casing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(upsertQuery).
			WithArgs("alice", "Alice", "$2a$10$hash", "10.0.0.1", now.UnixMilli(), now.UnixMilli()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Upsert(ctx, "Alice", "$2a$10$hash", "10.0.0.1", now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("defaults empty address", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(upsertQuery).
			WithArgs("bob", "bob", "$2a$10$hash", account.DefaultAddress, now.UnixMilli(), now.UnixMilli()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Upsert(ctx, "bob", "$2a$10$hash", "", now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("constraint violation carries the SQLSTATE", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "accounts_key_lowercase"}
		mock.ExpectExec(upsertQuery).
			WithArgs("alice", "Alice", "$2a$10$hash", "10.0.0.1", now.UnixMilli(), now.UnixMilli()).
			WillReturnError(pgErr)

		err := repo.Upsert(ctx, "Alice", "$2a$10$hash", "10.0.0.1", now)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_UPSERT_FAILED")
		errutil.AssertErrorContext(t, err, "pg_code", "23514")
		errutil.AssertErrorContext(t, err, "constraint", "accounts_key_lowercase")
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("existing row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(deleteQuery).
			WithArgs("alice").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		existed, err := repo.Delete(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, existed)
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(deleteQuery).
			WithArgs("ghost").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		existed, err := repo.Delete(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("exec failure is wrapped", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(deleteQuery).
			WithArgs("alice").
			WillReturnError(errors.New("timeout"))

		_, err := repo.Delete(ctx, "alice")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_DELETE_FAILED")
	})
}
