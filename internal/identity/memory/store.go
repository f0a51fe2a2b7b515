// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

// Package memory provides in-process identity repositories.
//
// The three repositories share one Store so that uniqueness and the
// user-delete cascade hold across them, matching the postgres schema.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/medusa/medusa/internal/identity"
)

// Store holds users, session tokens and profiles behind one lock.
type Store struct {
	mu       sync.RWMutex
	users    map[ulid.ULID]identity.User
	tokens   map[ulid.ULID]identity.SessionToken
	profiles map[ulid.ULID]identity.UserProfile // keyed by user ID
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:    make(map[ulid.ULID]identity.User),
		tokens:   make(map[ulid.ULID]identity.SessionToken),
		profiles: make(map[ulid.ULID]identity.UserProfile),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Tokens returns the session token repository view of the store.
func (s *Store) Tokens() *TokenRepository { return &TokenRepository{s: s} }

// Profiles returns the profile repository view of the store.
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s: s} }

// UserRepository implements identity.UserRepository.
type UserRepository struct{ s *Store }

var _ identity.UserRepository = (*UserRepository)(nil)

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "create user").Wrap(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.TenantID == user.TenantID && u.EmailAddress == user.EmailAddress {
			return oops.Code("USER_CONFLICT").
				With("tenant_id", user.TenantID.String()).
				Wrapf(identity.ErrConflict, "email address already registered")
		}
	}
	if _, ok := r.s.users[user.ID]; ok {
		return oops.Code("USER_CONFLICT").
			With("user_id", user.ID.String()).
			Wrapf(identity.ErrConflict, "user ID already exists")
	}
	r.s.users[user.ID] = *user
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get user by id").Wrap(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, userNotFound(id.String())
	}
	return &u, nil
}

// GetByEmail retrieves a user by tenant and email address.
func (r *UserRepository) GetByEmail(ctx context.Context, tenantID ulid.ULID, email string) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get user by email").Wrap(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.TenantID == tenantID && u.EmailAddress == email {
			return &u, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").
		With("tenant_id", tenantID.String()).
		Wrap(identity.ErrNotFound)
}

// ListByTenant returns the users of a tenant ordered by creation time.
func (r *UserRepository) ListByTenant(ctx context.Context, tenantID ulid.ULID) ([]*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*identity.User, 0)
	for _, u := range r.s.users {
		if u.TenantID == tenantID {
			users = append(users, &u)
		}
	}
	slices.SortFunc(users, func(a, b *identity.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return users, nil
}

// Delete removes a user with its tokens and profile.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "delete user").Wrap(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return userNotFound(id.String())
	}
	delete(r.s.users, id)
	delete(r.s.profiles, id)
	for tid, t := range r.s.tokens {
		if t.UserID == id {
			delete(r.s.tokens, tid)
		}
	}
	return nil
}

func userNotFound(id string) error {
	return oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(identity.ErrNotFound)
}

// TokenRepository implements identity.TokenRepository.
type TokenRepository struct{ s *Store }

var _ identity.TokenRepository = (*TokenRepository)(nil)

// Create stores a new session token.
func (r *TokenRepository) Create(ctx context.Context, token *identity.SessionToken) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "create session token").Wrap(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[token.UserID]; !ok {
		return oops.Code("TOKEN_PRINCIPAL_NOT_FOUND").
			With("user_id", token.UserID.String()).
			Wrap(identity.ErrPrincipalNotFound)
	}
	for _, t := range r.s.tokens {
		if t.ID == token.ID || t.Digest == token.Digest {
			return oops.Code("TOKEN_CONFLICT").
				With("token_id", token.ID.String()).
				Wrapf(identity.ErrConflict, "session token already exists")
		}
	}
	r.s.tokens[token.ID] = *token
	return nil
}

// GetByID retrieves a session token by ID.
func (r *TokenRepository) GetByID(ctx context.Context, id ulid.ULID) (*identity.SessionToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get session token by id").Wrap(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[id]
	if !ok {
		return nil, oops.Code("TOKEN_NOT_FOUND").With("token_id", id.String()).Wrap(identity.ErrNotFound)
	}
	return &t, nil
}

// GetByDigest retrieves a session token by digest.
func (r *TokenRepository) GetByDigest(ctx context.Context, digest string) (*identity.SessionToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get session token by digest").Wrap(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if t.Digest == digest {
			return &t, nil
		}
	}
	return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(identity.ErrNotFound)
}

// ListByUser returns a user's tokens, newest first.
func (r *TokenRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]*identity.SessionToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "list session tokens").Wrap(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tokens := make([]*identity.SessionToken, 0)
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			tokens = append(tokens, &t)
		}
	}
	slices.SortFunc(tokens, func(a, b *identity.SessionToken) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return b.ID.Compare(a.ID)
	})
	return tokens, nil
}

// Delete removes a session token by ID.
func (r *TokenRepository) Delete(ctx context.Context, id ulid.ULID) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "delete session token").Wrap(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokens[id]; !ok {
		return oops.Code("TOKEN_NOT_FOUND").With("token_id", id.String()).Wrap(identity.ErrNotFound)
	}
	delete(r.s.tokens, id)
	return nil
}

// ProfileRepository implements identity.ProfileRepository.
type ProfileRepository struct{ s *Store }

var _ identity.ProfileRepository = (*ProfileRepository)(nil)

// Create stores a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *identity.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "create profile").Wrap(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[profile.UserID]; !ok {
		return userNotFound(profile.UserID.String())
	}
	if _, ok := r.s.profiles[profile.UserID]; ok {
		return oops.Code("PROFILE_CONFLICT").
			With("user_id", profile.UserID.String()).
			Wrapf(identity.ErrConflict, "user already has a profile")
	}
	r.s.profiles[profile.UserID] = *profile
	return nil
}

// GetByUser retrieves the profile of a user.
func (r *ProfileRepository) GetByUser(ctx context.Context, userID ulid.ULID) (*identity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get profile").Wrap(err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, profileNotFound(userID.String())
	}
	return &p, nil
}

// Update persists the names of an existing profile.
func (r *ProfileRepository) Update(ctx context.Context, profile *identity.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "update profile").Wrap(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.profiles[profile.UserID]
	if !ok {
		return profileNotFound(profile.UserID.String())
	}
	existing.FirstName = profile.FirstName
	existing.LastName = profile.LastName
	existing.UpdatedAt = profile.UpdatedAt
	r.s.profiles[profile.UserID] = existing
	return nil
}

func profileNotFound(userID string) error {
	return oops.Code("PROFILE_NOT_FOUND").With("user_id", userID).Wrap(identity.ErrNotFound)
}
