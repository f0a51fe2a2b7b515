// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Operation labels for AuthAttempts.
const (
	opRegister = "register"
	opLogin    = "login"
)

// dummyCredential is verified when no user matches a login so that response
// time does not reveal whether the account exists. It uses the production
// cost parameters and matches no password.
var dummyCredential = encodeArgon2id(
	argon2Memory, argon2Time, argon2Threads,
	make([]byte, argon2SaltLen), make([]byte, argon2KeyLen),
)

// Service is the authentication facade: registration, login, token
// validation, and tenant-scoped user, profile and token management.
type Service struct {
	users    UserRepository
	profiles ProfileRepository
	issuer   *TokenIssuer
	hasher   PasswordHasher
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for audit events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service. All dependencies are required.
func NewService(users UserRepository, profiles ProfileRepository, issuer *TokenIssuer, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if profiles == nil {
		return nil, oops.Errorf("profile repository is required")
	}
	if issuer == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	s := &Service{
		users:    users,
		profiles: profiles,
		issuer:   issuer,
		hasher:   hasher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a user in the tenant and returns a new raw session token.
func (s *Service) Register(ctx context.Context, tenantID ulid.ULID, email, password, clientContext string) (string, error) {
	raw, err := s.register(ctx, tenantID, email, password, clientContext)
	AuthAttempts.WithLabelValues(opRegister, resultOf(err)).Inc()
	return raw, err
}

func (s *Service) register(ctx context.Context, tenantID ulid.ULID, email, password, clientContext string) (string, error) {
	if tenantID.Compare(ulid.ULID{}) == 0 {
		return "", oops.Code("USER_INVALID_INPUT").Wrapf(ErrInvalidInput, "tenant ID cannot be zero")
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", oops.Code("CREDENTIAL_INVALID_INPUT").Wrapf(ErrInvalidInput, "password cannot be empty")
	}

	_, err = s.users.GetByEmail(ctx, tenantID, normalized)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "registration rejected",
			"tenant_id", tenantID.String(),
			"reason", "duplicate email")
		return "", oops.Code("USER_CONFLICT").
			With("tenant_id", tenantID.String()).
			Wrapf(ErrConflict, "email address already registered")
	case !errors.Is(err, ErrNotFound):
		return "", err
	}

	credential, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}
	user, err := NewUser(tenantID, normalized, credential)
	if err != nil {
		return "", err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	raw, token, err := s.issuer.Issue(ctx, user, clientContext)
	if err != nil {
		// Remove the user so a failed registration can be retried.
		if delErr := s.users.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove user after token issuance failure",
				"tenant_id", tenantID.String(),
				"user_id", user.ID.String(),
				"error", delErr)
		}
		return "", err
	}

	s.logger.InfoContext(ctx, "user registered",
		"tenant_id", tenantID.String(),
		"user_id", user.ID.String(),
		"token_id", token.ID.String())
	return raw, nil
}

// Login authenticates a user and returns a new raw session token. An unknown
// email address and a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, tenantID ulid.ULID, email, password, clientContext string) (string, error) {
	raw, err := s.login(ctx, tenantID, email, password, clientContext)
	AuthAttempts.WithLabelValues(opLogin, resultOf(err)).Inc()
	return raw, err
}

func (s *Service) login(ctx context.Context, tenantID ulid.ULID, email, password, clientContext string) (string, error) {
	if tenantID.Compare(ulid.ULID{}) == 0 {
		return "", oops.Code("USER_INVALID_INPUT").Wrapf(ErrInvalidInput, "tenant ID cannot be zero")
	}
	if password == "" {
		return "", oops.Code("CREDENTIAL_INVALID_INPUT").Wrapf(ErrInvalidInput, "password cannot be empty")
	}

	var user *User
	if normalized, err := NormalizeEmail(email); err == nil {
		user, err = s.users.GetByEmail(ctx, tenantID, normalized)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}

	if user == nil {
		// Keep timing consistent with a real verification.
		_, _ = s.hasher.Verify(password, dummyCredential) //nolint:errcheck // result is irrelevant
		s.logger.InfoContext(ctx, "login failed",
			"tenant_id", tenantID.String(),
			"reason", "unknown user")
		return "", invalidCredentials()
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored credential could not be verified",
			"tenant_id", tenantID.String(),
			"user_id", user.ID.String(),
			"error", err)
		return "", oops.With("user_id", user.ID.String()).Wrap(err)
	}
	if !valid {
		s.logger.InfoContext(ctx, "login failed",
			"tenant_id", tenantID.String(),
			"user_id", user.ID.String(),
			"reason", "wrong password")
		return "", invalidCredentials()
	}

	raw, token, err := s.issuer.Issue(ctx, user, clientContext)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "login succeeded",
		"tenant_id", tenantID.String(),
		"user_id", user.ID.String(),
		"token_id", token.ID.String())
	return raw, nil
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrUnauthorized)
}

// ValidateToken resolves a raw session token to the read model of its user.
// The credential never leaves the package.
func (s *Service) ValidateToken(ctx context.Context, raw string) (*UserView, error) {
	user, err := s.issuer.Validate(ctx, raw)
	if err != nil {
		s.logger.DebugContext(ctx, "token validation failed", "reason", resultOf(err))
		return nil, err
	}
	return user.View(), nil
}

// ListUsers returns every user of a tenant.
func (s *Service) ListUsers(ctx context.Context, tenantID ulid.ULID) ([]*UserView, error) {
	users, err := s.users.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	views := make([]*UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

// GetUser returns a user of the tenant.
func (s *Service) GetUser(ctx context.Context, tenantID, userID ulid.ULID) (*UserView, error) {
	user, err := s.tenantUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// GetUserByEmail returns the tenant's user with the given email address.
func (s *Service) GetUserByEmail(ctx context.Context, tenantID ulid.ULID, email string) (*UserView, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, tenantID, normalized)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// DeleteUser removes a user. Its tokens and profile are removed by the
// repository.
func (s *Service) DeleteUser(ctx context.Context, tenantID, userID ulid.ULID) error {
	if _, err := s.tenantUser(ctx, tenantID, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted",
		"tenant_id", tenantID.String(),
		"user_id", userID.String())
	return nil
}

// GetProfile returns the profile of a tenant's user.
func (s *Service) GetProfile(ctx context.Context, tenantID, userID ulid.ULID) (*UserProfile, error) {
	if _, err := s.tenantUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	return s.profiles.GetByUser(ctx, userID)
}

// CreateProfile creates the profile of a tenant's user.
func (s *Service) CreateProfile(ctx context.Context, tenantID, userID ulid.ULID, firstName, lastName string) (*UserProfile, error) {
	if _, err := s.tenantUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	profile, err := NewUserProfile(userID, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile applies a partial change to the profile of a tenant's user.
func (s *Service) UpdateProfile(ctx context.Context, tenantID, userID ulid.ULID, upd ProfileUpdate) (*UserProfile, error) {
	if _, err := s.tenantUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := profile.Apply(upd); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ListTokens returns the tokens of a tenant's user without their digests.
func (s *Service) ListTokens(ctx context.Context, tenantID, userID ulid.ULID) ([]*TokenView, error) {
	if _, err := s.tenantUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	tokens, err := s.issuer.ListTokens(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]*TokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, t.View())
	}
	return views, nil
}

// GetToken returns one token of a tenant's user.
func (s *Service) GetToken(ctx context.Context, tenantID, userID, tokenID ulid.ULID) (*TokenView, error) {
	token, err := s.ownedToken(ctx, tenantID, userID, tokenID)
	if err != nil {
		return nil, err
	}
	return token.View(), nil
}

// RevokeToken deletes one token of a tenant's user.
func (s *Service) RevokeToken(ctx context.Context, tenantID, userID, tokenID ulid.ULID) error {
	if _, err := s.ownedToken(ctx, tenantID, userID, tokenID); err != nil {
		return err
	}
	if err := s.issuer.Revoke(ctx, tokenID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "token revoked",
		"tenant_id", tenantID.String(),
		"user_id", userID.String(),
		"token_id", tokenID.String())
	return nil
}

// tenantUser loads a user and hides users of other tenants.
func (s *Service) tenantUser(ctx context.Context, tenantID, userID ulid.ULID) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TenantID != tenantID {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(ErrNotFound)
	}
	return user, nil
}

func (s *Service) ownedToken(ctx context.Context, tenantID, userID, tokenID ulid.ULID) (*SessionToken, error) {
	if _, err := s.tenantUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	token, err := s.issuer.GetToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if token.UserID != userID {
		return nil, oops.Code("TOKEN_NOT_FOUND").
			With("token_id", tokenID.String()).
			Wrap(ErrTokenNotFound)
	}
	return token, nil
}
