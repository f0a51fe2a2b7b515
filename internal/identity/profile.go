// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxNameLength bounds first and last names.
const MaxNameLength = 100

// UserProfile holds descriptive data for a user. A user has at most one.
type UserProfile struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileUpdate carries a partial profile change. Nil fields are left as is.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}

// NewUserProfile creates a validated UserProfile.
func NewUserProfile(userID ulid.ULID, firstName, lastName string) (*UserProfile, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("PROFILE_INVALID_INPUT").Wrapf(ErrInvalidInput, "user ID cannot be zero")
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if err := validateName("first name", firstName); err != nil {
		return nil, err
	}
	if err := validateName("last name", lastName); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &UserProfile{
		ID:        ulid.Make(),
		UserID:    userID,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply merges upd into p and bumps UpdatedAt. p is unchanged on error.
func (p *UserProfile) Apply(upd ProfileUpdate) error {
	first, last := p.FirstName, p.LastName
	if upd.FirstName != nil {
		first = strings.TrimSpace(*upd.FirstName)
		if err := validateName("first name", first); err != nil {
			return err
		}
	}
	if upd.LastName != nil {
		last = strings.TrimSpace(*upd.LastName)
		if err := validateName("last name", last); err != nil {
			return err
		}
	}
	p.FirstName = first
	p.LastName = last
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func validateName(field, value string) error {
	if value == "" {
		return oops.Code("PROFILE_INVALID_INPUT").
			With("field", field).
			Wrapf(ErrInvalidInput, "%s cannot be empty", field)
	}
	if len(value) > MaxNameLength {
		return oops.Code("PROFILE_INVALID_INPUT").
			With("field", field).
			With("max", MaxNameLength).
			Wrapf(ErrInvalidInput, "%s must be at most %d characters", field, MaxNameLength)
	}
	return nil
}

// ProfileRepository manages user profile persistence.
type ProfileRepository interface {
	// Create stores a new profile. Returns an error wrapping ErrConflict if
	// the user already has one.
	Create(ctx context.Context, profile *UserProfile) error

	// GetByUser retrieves the profile of a user. Returns ErrNotFound if absent.
	GetByUser(ctx context.Context, userID ulid.ULID) (*UserProfile, error)

	// Update persists the names and UpdatedAt of an existing profile.
	// Returns ErrNotFound if absent.
	Update(ctx context.Context, profile *UserProfile) error
}
