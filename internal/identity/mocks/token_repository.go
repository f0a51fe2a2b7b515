// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/medusa/medusa/internal/identity"
)

// MockTokenRepository is a mock identity.TokenRepository.
type MockTokenRepository struct {
	mock.Mock
}

var _ identity.TokenRepository = (*MockTokenRepository)(nil)

// NewMockTokenRepository creates a MockTokenRepository bound to t.
func NewMockTokenRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenRepository {
	m := &MockTokenRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockTokenRepository) Create(ctx context.Context, token *identity.SessionToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// GetByID provides a mock function.
func (m *MockTokenRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.SessionToken, error) {
	args := m.Called(ctx, id)
	return tokenArg(args, 0), args.Error(1)
}

// GetByDigest provides a mock function.
func (m *MockTokenRepository) GetByDigest(ctx context.Context, digest string) (*identity.SessionToken, error) {
	args := m.Called(ctx, digest)
	return tokenArg(args, 0), args.Error(1)
}

// ListByUser provides a mock function.
func (m *MockTokenRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]*identity.SessionToken, error) {
	args := m.Called(ctx, userID)
	var tokens []*identity.SessionToken
	if v := args.Get(0); v != nil {
		tokens = v.([]*identity.SessionToken)
	}
	return tokens, args.Error(1)
}

// Delete provides a mock function.
func (m *MockTokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func tokenArg(args mock.Arguments, i int) *identity.SessionToken {
	if v := args.Get(i); v != nil {
		return v.(*identity.SessionToken)
	}
	return nil
}
