// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/medusa/medusa/internal/identity"
)

// MockPasswordHasher is a mock identity.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

var _ identity.PasswordHasher = (*MockPasswordHasher)(nil)

// NewMockPasswordHasher creates a MockPasswordHasher bound to t.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, encodedHash string) (bool, error) {
	args := m.Called(password, encodedHash)
	return args.Bool(0), args.Error(1)
}

// MockTokenHasher is a mock identity.TokenHasher.
type MockTokenHasher struct {
	mock.Mock
}

var _ identity.TokenHasher = (*MockTokenHasher)(nil)

// NewMockTokenHasher creates a MockTokenHasher bound to t.
func NewMockTokenHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenHasher {
	m := &MockTokenHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Digest provides a mock function.
func (m *MockTokenHasher) Digest(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}
