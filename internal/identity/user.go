// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxEmailLength is the longest email address accepted (RFC 5321 path limit).
const MaxEmailLength = 254

// User is an authenticated principal scoped to a tenant.
type User struct {
	ID           ulid.ULID
	TenantID     ulid.ULID
	EmailAddress string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a validated User. The email address must already be
// normalized with NormalizeEmail.
func NewUser(tenantID ulid.ULID, emailAddress, passwordHash string) (*User, error) {
	if tenantID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("USER_INVALID_INPUT").Wrapf(ErrInvalidInput, "tenant ID cannot be zero")
	}
	if emailAddress == "" {
		return nil, oops.Code("USER_INVALID_INPUT").Wrapf(ErrInvalidInput, "email address cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_INPUT").Wrapf(ErrInvalidInput, "password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &User{
		ID:           ulid.Make(),
		TenantID:     tenantID,
		EmailAddress: emailAddress,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail trims and lower-cases an email address and checks that it
// parses as a bare RFC 5322 address.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", oops.Code("USER_INVALID_INPUT").Wrapf(ErrInvalidInput, "email address cannot be empty")
	}
	if len(normalized) > MaxEmailLength {
		return "", oops.Code("USER_INVALID_INPUT").
			With("max", MaxEmailLength).
			Wrapf(ErrInvalidInput, "email address must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", oops.Code("USER_INVALID_INPUT").Wrapf(ErrInvalidInput, "email address is not valid")
	}
	return normalized, nil
}

// UserView is the read model returned to callers. It never carries the
// credential.
type UserView struct {
	ID           ulid.ULID
	TenantID     ulid.ULID
	EmailAddress string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View returns the read model for u.
func (u *User) View() *UserView {
	return &UserView{
		ID:           u.ID,
		TenantID:     u.TenantID,
		EmailAddress: u.EmailAddress,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// UserRepository manages user persistence.
//
// Implementations must enforce uniqueness of (TenantID, EmailAddress) and
// provide read-after-write consistency within a tenant.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrConflict when
	// the tenant already has a user with the same email address.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by tenant and normalized email address.
	// Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, tenantID ulid.ULID, email string) (*User, error)

	// ListByTenant returns all users of a tenant ordered by creation time.
	ListByTenant(ctx context.Context, tenantID ulid.ULID) ([]*User, error)

	// Delete removes a user together with its session tokens and profile.
	// Returns ErrNotFound if absent.
	Delete(ctx context.Context, id ulid.ULID) error
}
