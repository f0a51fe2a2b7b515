// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/medusa/medusa/internal/identity"
)

// Compile-time interface check.
var _ identity.ProfileRepository = (*ProfileRepository)(nil)

// ProfileRepository implements identity.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool poolIface
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool poolIface) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Create stores a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *identity.UserProfile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profiles (id, user_id, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		profile.ID.String(),
		profile.UserID.String(),
		profile.FirstName,
		profile.LastName,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return oops.Code("PROFILE_CONFLICT").
				With("user_id", profile.UserID.String()).
				Wrapf(identity.ErrConflict, "user already has a profile")
		case isForeignKeyViolation(err):
			return oops.Code("USER_NOT_FOUND").
				With("user_id", profile.UserID.String()).
				Wrap(identity.ErrNotFound)
		}
		return oops.Code("PROFILE_CREATE_FAILED").
			With("operation", "insert user_profile").
			With("user_id", profile.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByUser retrieves the profile of a user.
func (r *ProfileRepository) GetByUser(ctx context.Context, userID ulid.ULID) (*identity.UserProfile, error) {
	var (
		idStr, userStr      string
		firstName, lastName string
		createdAt           time.Time
		updatedAt           time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, first_name, last_name, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`, userID.String()).Scan(&idStr, &userStr, &firstName, &lastName, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROFILE_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").
			With("operation", "get profile by user").
			With("user_id", userID.String()).
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PROFILE_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	owner, err := ulid.Parse(userStr)
	if err != nil {
		return nil, oops.Code("PROFILE_CORRUPT_ID").With("user_id", userStr).Wrap(err)
	}

	return &identity.UserProfile{
		ID:        id,
		UserID:    owner,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Update persists the names of an existing profile.
func (r *ProfileRepository) Update(ctx context.Context, profile *identity.UserProfile) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE user_profiles SET first_name = $2, last_name = $3, updated_at = $4
		WHERE user_id = $1
	`, profile.UserID.String(), profile.FirstName, profile.LastName, profile.UpdatedAt)
	if err != nil {
		return oops.Code("PROFILE_UPDATE_FAILED").
			With("operation", "update user_profile").
			With("user_id", profile.UserID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROFILE_NOT_FOUND").
			With("user_id", profile.UserID.String()).
			Wrap(identity.ErrNotFound)
	}
	return nil
}
