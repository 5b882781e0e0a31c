// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

// Package accounttest provides test doubles for the account package.
package accounttest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/opengate/opengate/internal/account"
)

// MockRepository is a testify mock of account.Repository.
type MockRepository struct {
	mock.Mock
}

var _ account.Repository = (*MockRepository)(nil)

func (m *MockRepository) Find(ctx context.Context, key string) (*account.Account, error) {
	args := m.Called(ctx, key)
	acct, _ := args.Get(0).(*account.Account)
	return acct, args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, name, hashedPassword, address string, now time.Time) error {
	args := m.Called(ctx, name, hashedPassword, address, now)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockHasher is a testify mock of account.PasswordHasher.
type MockHasher struct {
	mock.Mock
}

var _ account.PasswordHasher = (*MockHasher)(nil)

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}
