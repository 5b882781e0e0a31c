// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
)

// UnregisterOutcome is the result of a self-service unregister attempt.
type UnregisterOutcome int

// UnregisterOutcome values.
const (
	// OutcomeFailure accompanies a non-nil error (store I/O failure or a
	// malformed stored hash). It is never returned with a nil error.
	OutcomeFailure UnregisterOutcome = iota
	OutcomeSuccess
	OutcomeNotRegistered
	OutcomeIncorrectPassword
)

// String returns a label suitable for logs and metrics.
func (o UnregisterOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotRegistered:
		return "not_registered"
	case OutcomeIncorrectPassword:
		return "incorrect_password"
	default:
		return "failure"
	}
}

// UnregisterHook is invoked after an account has been deleted from both
// store and cache. It runs on the Service's calling goroutine; anything
// touching a live game session must be dispatched by the hook onto the
// session runtime's own execution context.
type UnregisterHook func(acct Account)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithServiceClock overrides the time source used for registration and
// login timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithUnregisterHook sets the post-delete notification hook.
func WithUnregisterHook(hook UnregisterHook) ServiceOption {
	return func(s *Service) {
		s.onUnregister = hook
	}
}

// Service orchestrates account resolution, password verification, and
// mutations while keeping cache and store coherent.
//
// Reads go cache-then-store; mutations re-read the store before deciding
// register-vs-update so they never act on stale cached state. Concurrent
// mutations on the same key are not serialized: the store's per-row
// consistency decides the winner and the cache may lag a losing writer's
// value for at most one TTL window.
type Service struct {
	repo   Repository
	cache  *Cache
	hasher PasswordHasher

	logger       *slog.Logger
	now          func() time.Time
	onUnregister UnregisterHook
}

// NewService creates a Service. The cache is owned by the returned
// instance; independent deployments (and tests) get independent caches.
func NewService(repo Repository, cache *Cache, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if cache == nil {
		return nil, oops.Errorf("account cache is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}

	s := &Service{
		repo:   repo,
		cache:  cache,
		hasher: hasher,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return s, nil
}

// Resolve returns the account registered under name (any casing).
// Cache first, then store; a store hit populates the cache. A store miss
// returns ErrNotFound and is never cached, so a registration that follows
// is visible immediately.
func (s *Service) Resolve(ctx context.Context, name string) (*Account, error) {
	key := CanonicalKey(name)

	if acct, ok := s.cache.Get(key); ok {
		recordCacheLookup(true)
		return acct, nil
	}
	recordCacheLookup(false)

	acct, err := s.repo.Find(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("ACCOUNT_RESOLVE_FAILED").
			With("operation", "find account").
			With("account", key).
			Wrap(err)
	}

	s.cache.Put(key, *acct)
	return acct, nil
}

// VerifySecret checks a supplied password against an account's stored
// hash. A mismatch returns (false, nil); a stored hash failing the
// format check returns an error wrapping ErrMalformedHash so integrity
// faults are never mistaken for a wrong password.
func (s *Service) VerifySecret(acct *Account, password string) (bool, error) {
	ok, err := s.hasher.Verify(password, acct.HashedPassword)
	if err != nil {
		recordVerification(ResultMalformed)
		return false, oops.Code("ACCOUNT_MALFORMED_HASH").
			With("account", acct.Key).
			Wrap(err)
	}
	if ok {
		recordVerification(ResultMatch)
	} else {
		recordVerification(ResultMismatch)
	}
	return ok, nil
}

// Register creates or updates the account for name.
//
// The existence check reads the store, not the cache, so a stale cache
// entry can never turn an update into a create or vice versa. The store
// write happens before the cache update, and the cache update happens
// before Register returns: a caller observing success observes the new
// state on its next Resolve.
func (s *Service) Register(ctx context.Context, name, password, address string, overwrite bool) error {
	key := CanonicalKey(name)

	existing, err := s.repo.Find(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		recordMutation("register", "error")
		return oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "find account").
			With("account", key).
			Wrap(err)
	}
	if existing != nil && !overwrite {
		recordMutation("register", "already_registered")
		return oops.Code("ACCOUNT_ALREADY_REGISTERED").
			With("account", key).
			Wrap(ErrAlreadyRegistered)
	}

	if strings.TrimSpace(password) == "" {
		recordMutation("register", "empty_password")
		return oops.Code("ACCOUNT_EMPTY_PASSWORD").
			With("account", key).
			Wrap(ErrEmptyPassword)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		recordMutation("register", "error")
		return oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "hash password").
			With("account", key).
			Wrap(err)
	}

	if address == "" {
		address = DefaultAddress
	}
	now := s.now()

	// Write-through: a failed store write leaves the cache exactly as it
	// was, so cache and store cannot diverge after a failure.
	if err := s.repo.Upsert(ctx, name, hash, address, now); err != nil {
		recordMutation("register", "error")
		return oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "upsert account").
			With("account", key).
			Wrap(err)
	}

	acct := Account{
		Key:            key,
		Realname:       name,
		HashedPassword: hash,
		LastAddress:    address,
		LastLogin:      now.UnixMilli(),
		RegDate:        now.UnixMilli(),
	}
	if existing != nil {
		// Realname and regdate are immutable once set.
		acct.Realname = existing.Realname
		acct.RegDate = existing.RegDate
	}
	s.cache.Put(key, acct)

	recordMutation("register", "success")
	s.logger.InfoContext(ctx, "account registered",
		"account", key,
		"update", existing != nil)
	return nil
}

// Unregister deletes the account for name. Returns false when no account
// exists; calling it again for a never-re-registered name keeps
// returning false, never an error.
//
// The existence gate tolerates the cache's short TTL, but the delete
// itself always targets the store. The cache entry is invalidated
// unconditionally after a successful delete, even if it was already
// stale or absent.
func (s *Service) Unregister(ctx context.Context, name string) (bool, error) {
	key := CanonicalKey(name)

	acct, err := s.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		recordMutation("unregister", "error")
		return false, err
	}

	existed, err := s.repo.Delete(ctx, key)
	if err != nil {
		recordMutation("unregister", "error")
		return false, oops.Code("ACCOUNT_UNREGISTER_FAILED").
			With("operation", "delete account").
			With("account", key).
			Wrap(err)
	}

	s.cache.Invalidate(key)

	if existed {
		recordMutation("unregister", "success")
		s.logger.InfoContext(ctx, "account unregistered", "account", key)
		if s.onUnregister != nil {
			s.onUnregister(*acct)
		}
	}
	return existed, nil
}

// VerifyAndUnregister is the self-service path: the supplied password
// must match before the account is deleted.
func (s *Service) VerifyAndUnregister(ctx context.Context, name, password string) (UnregisterOutcome, error) {
	acct, err := s.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return OutcomeNotRegistered, nil
		}
		return OutcomeFailure, err
	}

	ok, err := s.VerifySecret(acct, password)
	if err != nil {
		return OutcomeFailure, err
	}
	if !ok {
		return OutcomeIncorrectPassword, nil
	}

	existed, err := s.Unregister(ctx, name)
	if err != nil {
		return OutcomeFailure, err
	}
	if !existed {
		// Deleted out from under us between resolve and delete.
		return OutcomeNotRegistered, nil
	}
	return OutcomeSuccess, nil
}

// RecordLogin refreshes an account's last-login timestamp and address
// after a successful authentication, then updates the cache.
func (s *Service) RecordLogin(ctx context.Context, acct *Account, address string) error {
	if address == "" {
		address = DefaultAddress
	}
	now := s.now()

	if err := s.repo.Upsert(ctx, acct.Realname, acct.HashedPassword, address, now); err != nil {
		recordMutation("record_login", "error")
		return oops.Code("ACCOUNT_RECORD_LOGIN_FAILED").
			With("operation", "upsert account").
			With("account", acct.Key).
			Wrap(err)
	}

	updated := *acct
	updated.LastAddress = address
	updated.LastLogin = now.UnixMilli()
	s.cache.Put(acct.Key, updated)

	recordMutation("record_login", "success")
	return nil
}

// AddToCache primes the cache with an account a collaborator read from
// the store out-of-band (e.g. a session-join hook).
func (s *Service) AddToCache(acct Account) {
	s.cache.Put(CanonicalKey(acct.Realname), acct)
}

// InvalidateCache evicts the cache entry for name, if any.
func (s *Service) InvalidateCache(name string) {
	s.cache.Invalidate(CanonicalKey(name))
}
