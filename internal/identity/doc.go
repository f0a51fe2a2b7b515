// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

// Package identity provides the authentication core for Medusa tenants.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewUser - creates a User with a validated tenant, email and credential
//   - NewSessionToken - creates a SessionToken with a validated owner and expiry
//   - NewUserProfile - creates a UserProfile with validated names
//
// Email addresses are normalized with NormalizeEmail before they reach a
// repository.
//
// # Primitives
//
//   - Argon2idHasher - password credentials (PHC encoded argon2id)
//   - HMACTokenHasher - keyed digests of raw session tokens
//   - TokenIssuer - issuance, validation and revocation of session tokens
//
// # Services
//
// Service is the facade used by callers: Register, Login and ValidateToken,
// plus tenant-scoped user, profile and token management. Services are
// created with New* constructors that validate dependencies.
//
// Repository implementations live in the postgres and memory subpackages.
package identity
