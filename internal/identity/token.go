// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes    = 32            // 256 bits of entropy, 43 chars encoded
	SessionTokenLifetime = 8 * time.Hour // fixed, never extended
	MaxClientContextLen  = 512
)

// SessionToken is the persisted form of an issued bearer token. Only the
// digest of the raw token is stored.
type SessionToken struct {
	ID            ulid.ULID
	UserID        ulid.ULID
	Digest        string
	ClientContext string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSessionToken creates a validated SessionToken. ClientContext is optional;
// it is sanitized with SanitizeClientContext.
func NewSessionToken(userID ulid.ULID, digest, clientContext string, createdAt, expiresAt time.Time) (*SessionToken, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_INPUT").Wrapf(ErrInvalidInput, "user ID cannot be zero")
	}
	if digest == "" {
		return nil, oops.Code("TOKEN_INVALID_INPUT").Wrapf(ErrInvalidInput, "token digest cannot be empty")
	}
	if expiresAt.IsZero() || !expiresAt.After(createdAt) {
		return nil, oops.Code("TOKEN_INVALID_INPUT").Wrapf(ErrInvalidInput, "expiry must be after creation time")
	}
	clientContext = SanitizeClientContext(clientContext)

	return &SessionToken{
		ID:            ulid.Make(),
		UserID:        userID,
		Digest:        digest,
		ClientContext: clientContext,
		ExpiresAt:     expiresAt,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, nil
}

// SanitizeClientContext drops invalid UTF-8 and NUL bytes, which text
// columns reject, and truncates the result to MaxClientContextLen bytes on a
// rune boundary.
func SanitizeClientContext(s string) string {
	s = strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
	if len(s) > MaxClientContextLen {
		s = strings.ToValidUTF8(s[:MaxClientContextLen], "")
	}
	return s
}

// IsExpiredAt reports whether the token is no longer valid at t. A token
// whose expiry equals t is expired.
func (s *SessionToken) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// GenerateRawToken returns a new URL-safe random bearer token.
func GenerateRawToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenView describes an issued token without its digest.
type TokenView struct {
	ID            ulid.ULID
	UserID        ulid.ULID
	ClientContext string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// View returns the read model for s.
func (s *SessionToken) View() *TokenView {
	return &TokenView{
		ID:            s.ID,
		UserID:        s.UserID,
		ClientContext: s.ClientContext,
		ExpiresAt:     s.ExpiresAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// TokenRepository manages session token persistence.
//
// Implementations must enforce a uniqueness constraint on Digest and reject
// tokens whose UserID does not reference an existing user.
type TokenRepository interface {
	// Create stores a new token. Returns an error wrapping ErrConflict on a
	// duplicate digest, or ErrPrincipalNotFound if the owner does not exist.
	Create(ctx context.Context, token *SessionToken) error

	// GetByID retrieves a token by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*SessionToken, error)

	// GetByDigest retrieves a token by exact digest match.
	// Returns ErrNotFound if absent.
	GetByDigest(ctx context.Context, digest string) (*SessionToken, error)

	// ListByUser returns all tokens of a user, newest first, including
	// expired ones.
	ListByUser(ctx context.Context, userID ulid.ULID) ([]*SessionToken, error)

	// Delete removes a token by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id ulid.ULID) error
}
