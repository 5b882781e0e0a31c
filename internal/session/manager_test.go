// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opengate/opengate/internal/account"
	"github.com/opengate/opengate/internal/account/accounttest"
	"github.com/opengate/opengate/internal/session"
)

func newManager(t *testing.T, repo account.Repository) (*session.Manager, *account.Service) {
	t.Helper()
	svc, err := account.NewService(repo, account.NewCache(), &accounttest.MockHasher{})
	require.NoError(t, err)
	mgr, err := session.NewManager(svc, repo, nil)
	require.NoError(t, err)
	return mgr, svc
}

func TestOnJoin(t *testing.T) {
	ctx := context.Background()
	stored := &account.Account{Key: "alice", Realname: "Alice", HashedPassword: "$2a$10$hash"}

	t.Run("registered player primes the cache", func(t *testing.T) {
		repo := &accounttest.MockRepository{}
		repo.On("Find", mock.Anything, "alice").Return(stored, nil).Once()
		mgr, svc := newManager(t, repo)

		sess, err := mgr.OnJoin(ctx, "Alice", "10.0.0.1", nil)
		require.NoError(t, err)
		assert.Equal(t, "Alice", sess.PlayerName)

		// The account now resolves without another store read; Find was
		// set to Once.
		got, err := svc.Resolve(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Realname)
		repo.AssertExpectations(t)
	})

	t.Run("unregistered player may join", func(t *testing.T) {
		repo := &accounttest.MockRepository{}
		repo.On("Find", mock.Anything, "bob").Return(nil, account.ErrNotFound)
		mgr, _ := newManager(t, repo)

		sess, err := mgr.OnJoin(ctx, "Bob", "10.0.0.1", nil)
		require.NoError(t, err)
		assert.NotNil(t, mgr.Get("bob"))
		assert.Equal(t, sess.ID, mgr.Get("bob").ID)
	})

	t.Run("store failure rejects the join", func(t *testing.T) {
		repo := &accounttest.MockRepository{}
		repo.On("Find", mock.Anything, "alice").Return(nil, errors.New("connection refused"))
		mgr, _ := newManager(t, repo)

		_, err := mgr.OnJoin(ctx, "Alice", "10.0.0.1", nil)
		require.Error(t, err)
		assert.Nil(t, mgr.Get("alice"))
	})
}

func TestOnQuit(t *testing.T) {
	ctx := context.Background()
	stored := &account.Account{Key: "alice", Realname: "Alice"}

	t.Run("removes session and evicts cache", func(t *testing.T) {
		repo := &accounttest.MockRepository{}
		repo.On("Find", mock.Anything, "alice").Return(stored, nil).Twice()
		mgr, svc := newManager(t, repo)

		sess, err := mgr.OnJoin(ctx, "Alice", "10.0.0.1", nil)
		require.NoError(t, err)

		mgr.OnQuit(sess)
		assert.Nil(t, mgr.Get("alice"))

		// The cache entry is gone; the next resolve hits the store again.
		_, err = svc.Resolve(ctx, "alice")
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("nil session is a no-op", func(t *testing.T) {
		mgr, _ := newManager(t, &accounttest.MockRepository{})
		mgr.OnQuit(nil)
	})

	t.Run("stale quit leaves the newer session", func(t *testing.T) {
		repo := &accounttest.MockRepository{}
		repo.On("Find", mock.Anything, "alice").Return(stored, nil).Twice()
		mgr, svc := newManager(t, repo)

		first, err := mgr.OnJoin(ctx, "Alice", "10.0.0.1", nil)
		require.NoError(t, err)
		second, err := mgr.OnJoin(ctx, "Alice", "10.0.0.2", func(string) {})
		require.NoError(t, err)

		// The first connection closes after being replaced. Its quit
		// must not evict the live second session or its cache entry.
		mgr.OnQuit(first)
		got := mgr.Get("alice")
		require.NotNil(t, got)
		assert.Equal(t, second.ID, got.ID)
		assert.True(t, mgr.Kick("alice", "still reachable"))

		// The cache entry survives the stale quit; Find was set to
		// Twice and both calls were consumed by the joins.
		_, err = svc.Resolve(ctx, "alice")
		require.NoError(t, err)
		repo.AssertExpectations(t)

		mgr.OnQuit(second)
		assert.Nil(t, mgr.Get("alice"))
	})
}

func TestKick(t *testing.T) {
	ctx := context.Background()

	t.Run("invokes the kick function", func(t *testing.T) {
		repo := &accounttest.MockRepository{}
		repo.On("Find", mock.Anything, "alice").Return(nil, account.ErrNotFound)
		mgr, _ := newManager(t, repo)

		var mu sync.Mutex
		var gotReason string
		done := make(chan struct{})
		_, err := mgr.OnJoin(ctx, "Alice", "10.0.0.1", func(reason string) {
			mu.Lock()
			gotReason = reason
			mu.Unlock()
			close(done)
		})
		require.NoError(t, err)

		assert.True(t, mgr.Kick("ALICE", "account deleted"))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("kick function was not invoked")
		}
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "account deleted", gotReason)
	})

	t.Run("no session", func(t *testing.T) {
		mgr, _ := newManager(t, &accounttest.MockRepository{})
		assert.False(t, mgr.Kick("nobody", "reason"))
	})

	t.Run("session without kick function", func(t *testing.T) {
		repo := &accounttest.MockRepository{}
		repo.On("Find", mock.Anything, "bob").Return(nil, account.ErrNotFound)
		mgr, _ := newManager(t, repo)

		_, err := mgr.OnJoin(ctx, "Bob", "10.0.0.1", nil)
		require.NoError(t, err)
		assert.False(t, mgr.Kick("Bob", "reason"))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := &accounttest.MockRepository{}
	repo.On("Find", mock.Anything, mock.Anything).Return(nil, account.ErrNotFound)
	mgr, _ := newManager(t, repo)

	_, err := mgr.OnJoin(ctx, "Alice", "10.0.0.1", nil)
	require.NoError(t, err)
	_, err = mgr.OnJoin(ctx, "Bob", "10.0.0.2", nil)
	require.NoError(t, err)

	list := mgr.List()
	assert.Len(t, list, 2)

	// Returned sessions are copies.
	list[0].PlayerName = "mutated"
	names := map[string]bool{}
	for _, s := range mgr.List() {
		names[s.PlayerName] = true
	}
	assert.False(t, names["mutated"])
}
