// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import "errors"

// Error kinds reported by the identity core. Errors returned by this package
// and its repositories wrap one of these in an oops error carrying a code, so
// callers can match with errors.Is and log the code.
var (
	// ErrInvalidInput is returned for empty or malformed arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedDigest is returned when a stored credential cannot be parsed.
	// It indicates data corruption and is never reported as a wrong password.
	ErrMalformedDigest = errors.New("malformed credential digest")

	// ErrConflict is returned when a uniqueness constraint would be violated.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized is returned for every failed login, whether or not the
	// account exists.
	ErrUnauthorized = errors.New("invalid email address or password")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTokenNotFound is returned when no session token matches.
	ErrTokenNotFound = errors.New("session token not found")

	// ErrTokenExpired is returned when a session token is past its expiry.
	ErrTokenExpired = errors.New("session token has expired")

	// ErrPrincipalNotFound is returned when a valid token references a user
	// that no longer exists.
	ErrPrincipalNotFound = errors.New("session token owner not found")
)
