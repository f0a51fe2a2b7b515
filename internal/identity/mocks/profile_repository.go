// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/medusa/medusa/internal/identity"
)

// MockProfileRepository is a mock identity.ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

var _ identity.ProfileRepository = (*MockProfileRepository)(nil)

// NewMockProfileRepository creates a MockProfileRepository bound to t.
func NewMockProfileRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockProfileRepository {
	m := &MockProfileRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockProfileRepository) Create(ctx context.Context, profile *identity.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// GetByUser provides a mock function.
func (m *MockProfileRepository) GetByUser(ctx context.Context, userID ulid.ULID) (*identity.UserProfile, error) {
	args := m.Called(ctx, userID)
	var profile *identity.UserProfile
	if v := args.Get(0); v != nil {
		profile = v.(*identity.UserProfile)
	}
	return profile, args.Error(1)
}

// Update provides a mock function.
func (m *MockProfileRepository) Update(ctx context.Context, profile *identity.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}
