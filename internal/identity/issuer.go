// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenIssuer creates, resolves and revokes opaque session tokens.
// The raw token is returned to the caller exactly once; only its digest is
// persisted. Lifetime is fixed at issuance and validation never extends it.
type TokenIssuer struct {
	tokens TokenRepository
	users  UserRepository
	hasher TokenHasher
	now    func() time.Time
}

// IssuerOption configures a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(tokens TokenRepository, users UserRepository, hasher TokenHasher, opts ...IssuerOption) (*TokenIssuer, error) {
	if tokens == nil {
		return nil, oops.Errorf("token repository is required")
	}
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("token hasher is required")
	}
	i := &TokenIssuer{
		tokens: tokens,
		users:  users,
		hasher: hasher,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue creates a new session token for user and returns the raw token
// together with the persisted record.
func (i *TokenIssuer) Issue(ctx context.Context, user *User, clientContext string) (string, *SessionToken, error) {
	if user == nil {
		return "", nil, oops.Code("TOKEN_INVALID_INPUT").Wrapf(ErrInvalidInput, "user cannot be nil")
	}

	raw, err := GenerateRawToken()
	if err != nil {
		return "", nil, err
	}
	digest, err := i.hasher.Digest(raw)
	if err != nil {
		return "", nil, err
	}

	now := i.now().UTC()
	token, err := NewSessionToken(user.ID, digest, clientContext, now, now.Add(SessionTokenLifetime))
	if err != nil {
		return "", nil, err
	}
	if err := i.tokens.Create(ctx, token); err != nil {
		return "", nil, err
	}

	TokensIssued.Inc()
	return raw, token, nil
}

// Validate resolves a raw token to its owner. It performs no writes.
func (i *TokenIssuer) Validate(ctx context.Context, raw string) (*User, error) {
	user, err := i.validate(ctx, raw)
	TokenValidations.WithLabelValues(resultOf(err)).Inc()
	return user, err
}

func (i *TokenIssuer) validate(ctx context.Context, raw string) (*User, error) {
	digest, err := i.hasher.Digest(raw)
	if err != nil {
		return nil, err
	}

	token, err := i.tokens.GetByDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(ErrTokenNotFound)
		}
		return nil, err
	}

	if token.IsExpiredAt(i.now()) {
		return nil, oops.Code("TOKEN_EXPIRED").
			With("token_id", token.ID.String()).
			With("expires_at", token.ExpiresAt).
			Wrap(ErrTokenExpired)
	}

	user, err := i.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TOKEN_PRINCIPAL_NOT_FOUND").
				With("token_id", token.ID.String()).
				With("user_id", token.UserID.String()).
				Wrap(ErrPrincipalNotFound)
		}
		return nil, err
	}
	return user, nil
}

// Revoke deletes a token by ID.
func (i *TokenIssuer) Revoke(ctx context.Context, id ulid.ULID) error {
	if err := i.tokens.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("TOKEN_NOT_FOUND").
				With("token_id", id.String()).
				Wrap(ErrTokenNotFound)
		}
		return err
	}
	return nil
}

// GetToken returns a token record by ID.
func (i *TokenIssuer) GetToken(ctx context.Context, id ulid.ULID) (*SessionToken, error) {
	token, err := i.tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TOKEN_NOT_FOUND").
				With("token_id", id.String()).
				Wrap(ErrTokenNotFound)
		}
		return nil, err
	}
	return token, nil
}

// ListTokens returns all tokens issued to a user, expired ones included.
func (i *TokenIssuer) ListTokens(ctx context.Context, userID ulid.ULID) ([]*SessionToken, error) {
	return i.tokens.ListByUser(ctx, userID)
}
