// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

// Package session tracks live player sessions and bridges them to the
// account core: joining primes the account cache, quitting invalidates
// it, and a deleted account gets its live session kicked.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/opengate/opengate/internal/account"
)

// KickFunc disconnects a live session. It is provided by the connection
// owner and must be safe to call from any goroutine.
type KickFunc func(reason string)

// Session is one live player connection.
type Session struct {
	ID          ulid.ULID
	PlayerName  string
	Address     string
	ConnectedAt time.Time

	kick KickFunc
}

// Manager tracks live sessions keyed by canonical player name.
type Manager struct {
	accounts *account.Service
	repo     account.Repository
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(accounts *account.Service, repo account.Repository, logger *slog.Logger) (*Manager, error) {
	if accounts == nil {
		return nil, oops.Errorf("account service is required")
	}
	if repo == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		accounts: accounts,
		repo:     repo,
		logger:   logger,
		sessions: make(map[string]*Session),
	}, nil
}

// OnJoin records a new live session. The account record, when one
// exists, is re-read from the store and pushed into the account cache
// so the player's first resolve after joining skips a store round-trip.
// An unregistered player may join; registration comes later.
func (m *Manager) OnJoin(ctx context.Context, name, address string, kick KickFunc) (*Session, error) {
	key := account.CanonicalKey(name)

	acct, err := m.repo.Find(ctx, key)
	switch {
	case err == nil:
		m.accounts.AddToCache(*acct)
	case errors.Is(err, account.ErrNotFound):
		// Not registered yet; nothing to prime.
	default:
		return nil, oops.Code("SESSION_JOIN_FAILED").
			With("operation", "find account").
			With("account", key).
			Wrap(err)
	}

	sess := &Session{
		ID:          ulid.Make(),
		PlayerName:  name,
		Address:     address,
		ConnectedAt: time.Now(),
		kick:        kick,
	}

	m.mu.Lock()
	m.sessions[key] = sess
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "session joined",
		"session_id", sess.ID.String(),
		"player", key,
		"address", address)
	return sess, nil
}

// OnQuit removes a live session and evicts the player's cache entry so
// a later lookup sees fresh store state. A stale quit, one whose session
// has already been replaced by a newer connection for the same name,
// leaves the live session and the cache alone.
func (m *Manager) OnQuit(sess *Session) {
	if sess == nil {
		return
	}
	key := account.CanonicalKey(sess.PlayerName)

	m.mu.Lock()
	current, ok := m.sessions[key]
	removed := ok && current.ID == sess.ID
	if removed {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if !removed {
		return
	}

	m.accounts.InvalidateCache(key)
	m.logger.Info("session quit",
		"session_id", sess.ID.String(),
		"player", key)
}

// Kick disconnects the named player's live session, if any. The kick
// runs on its own goroutine: the session's connection is owned by the
// network layer, not by whoever triggered the kick.
func (m *Manager) Kick(name, reason string) bool {
	key := account.CanonicalKey(name)

	m.mu.RLock()
	sess, ok := m.sessions[key]
	m.mu.RUnlock()

	if !ok || sess.kick == nil {
		return false
	}

	go sess.kick(reason)
	m.logger.Info("session kicked", "player", key, "reason", reason)
	return true
}

// Get returns a copy of the named player's session, or nil.
func (m *Manager) Get(name string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[account.CanonicalKey(name)]
	if !ok {
		return nil
	}
	cp := *sess
	return &cp
}

// List returns copies of all live sessions.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		cp := *sess
		out = append(out, &cp)
	}
	return out
}
