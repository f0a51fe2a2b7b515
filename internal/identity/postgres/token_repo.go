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
var _ identity.TokenRepository = (*TokenRepository)(nil)

const tokenColumns = `id, user_id, digest, client_context, expires_at, created_at, updated_at`

// TokenRepository implements identity.TokenRepository using PostgreSQL.
type TokenRepository struct {
	pool poolIface
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(pool poolIface) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Create stores a new session token.
func (r *TokenRepository) Create(ctx context.Context, token *identity.SessionToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		token.ID.String(),
		token.UserID.String(),
		token.Digest,
		token.ClientContext,
		token.ExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return oops.Code("TOKEN_CONFLICT").
				With("token_id", token.ID.String()).
				Wrapf(identity.ErrConflict, "session token already exists")
		case isForeignKeyViolation(err):
			return oops.Code("TOKEN_PRINCIPAL_NOT_FOUND").
				With("user_id", token.UserID.String()).
				Wrap(identity.ErrPrincipalNotFound)
		}
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert user_token").
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a session token by ID.
func (r *TokenRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.SessionToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM user_tokens
		WHERE id = $1
	`, id.String())

	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").
			With("token_id", id.String()).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").
			With("operation", "get token by id").
			With("token_id", id.String()).
			Wrap(err)
	}
	return token, nil
}

// GetByDigest retrieves a session token by digest.
func (r *TokenRepository) GetByDigest(ctx context.Context, digest string) (*identity.SessionToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM user_tokens
		WHERE digest = $1
	`, digest)

	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").
			With("operation", "get token by digest").
			Wrap(err)
	}
	return token, nil
}

// ListByUser returns a user's tokens, newest first.
func (r *TokenRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]*identity.SessionToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tokenColumns+`
		FROM user_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID.String())
	if err != nil {
		return nil, oops.Code("TOKEN_LIST_FAILED").
			With("operation", "list tokens by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	tokens := make([]*identity.SessionToken, 0)
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, oops.Code("TOKEN_SCAN_FAILED").
				With("operation", "scan token row").
				Wrap(err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TOKEN_ROWS_ERROR").
			With("operation", "iterate token rows").
			Wrap(err)
	}
	return tokens, nil
}

// Delete removes a session token by ID.
func (r *TokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM user_tokens WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete user_token").
			With("token_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TOKEN_NOT_FOUND").
			With("token_id", id.String()).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// scanToken scans a single row into a SessionToken.
// pgx.ErrNoRows is returned unwrapped for callers to handle.
func scanToken(row pgx.Row) (*identity.SessionToken, error) {
	var (
		idStr, userStr string
		digest         string
		clientContext  string
		expiresAt      time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)
	if err := row.Scan(&idStr, &userStr, &digest, &clientContext, &expiresAt, &createdAt, &updatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TOKEN_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	userID, err := ulid.Parse(userStr)
	if err != nil {
		return nil, oops.Code("TOKEN_CORRUPT_ID").With("user_id", userStr).Wrap(err)
	}

	return &identity.SessionToken{
		ID:            id,
		UserID:        userID,
		Digest:        digest,
		ClientContext: clientContext,
		ExpiresAt:     expiresAt,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}
