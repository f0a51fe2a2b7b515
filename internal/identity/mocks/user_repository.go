// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/medusa/medusa/internal/identity"
)

// MockUserRepository is a mock identity.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

var _ identity.UserRepository = (*MockUserRepository)(nil)

// NewMockUserRepository creates a MockUserRepository bound to t.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID provides a mock function.
func (m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

// GetByEmail provides a mock function.
func (m *MockUserRepository) GetByEmail(ctx context.Context, tenantID ulid.ULID, email string) (*identity.User, error) {
	args := m.Called(ctx, tenantID, email)
	return userArg(args, 0), args.Error(1)
}

// ListByTenant provides a mock function.
func (m *MockUserRepository) ListByTenant(ctx context.Context, tenantID ulid.ULID) ([]*identity.User, error) {
	args := m.Called(ctx, tenantID)
	var users []*identity.User
	if v := args.Get(0); v != nil {
		users = v.([]*identity.User)
	}
	return users, args.Error(1)
}

// Delete provides a mock function.
func (m *MockUserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func userArg(args mock.Arguments, i int) *identity.User {
	if v := args.Get(i); v != nil {
		return v.(*identity.User)
	}
	return nil
}
