// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity_test

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medusa/medusa/internal/identity"
	"github.com/medusa/medusa/pkg/errutil"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lower-cases and trims", "  Alice@Example.COM ", "alice@example.com", false},
		{"plain address", "a@b.com", "a@b.com", false},
		{"plus tag", "a+tag@b.com", "a+tag@b.com", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"missing at", "alice.example.com", "", true},
		{"display name", "Alice <alice@example.com>", "", true},
		{"too long", strings.Repeat("a", 250) + "@b.com", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := identity.NormalizeEmail(tt.input)
			if tt.wantErr {
				errutil.AssertErrorIs(t, err, identity.ErrInvalidInput, "USER_INVALID_INPUT")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewUser(t *testing.T) {
	tenantID := ulid.Make()

	t.Run("valid user", func(t *testing.T) {
		user, err := identity.NewUser(tenantID, "a@b.com", "credential")
		require.NoError(t, err)
		assert.NotEqual(t, ulid.ULID{}, user.ID)
		assert.Equal(t, tenantID, user.TenantID)
		assert.Equal(t, "a@b.com", user.EmailAddress)
		assert.Equal(t, "credential", user.PasswordHash)
		assert.False(t, user.CreatedAt.IsZero())
		assert.Equal(t, user.CreatedAt, user.UpdatedAt)
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		_, err := identity.NewUser(ulid.ULID{}, "a@b.com", "credential")
		errutil.AssertErrorIs(t, err, identity.ErrInvalidInput, "USER_INVALID_INPUT")

		_, err = identity.NewUser(tenantID, "", "credential")
		errutil.AssertErrorIs(t, err, identity.ErrInvalidInput, "USER_INVALID_INPUT")

		_, err = identity.NewUser(tenantID, "a@b.com", "")
		errutil.AssertErrorIs(t, err, identity.ErrInvalidInput, "USER_INVALID_INPUT")
	})
}

func TestUser_View(t *testing.T) {
	user, err := identity.NewUser(ulid.Make(), "a@b.com", "credential")
	require.NoError(t, err)

	view := user.View()
	assert.Equal(t, user.ID, view.ID)
	assert.Equal(t, user.TenantID, view.TenantID)
	assert.Equal(t, user.EmailAddress, view.EmailAddress)
	assert.Equal(t, user.CreatedAt, view.CreatedAt)
}
