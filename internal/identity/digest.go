// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/samber/oops"
)

// TokenHasher converts a raw session token into the digest used for storage
// and lookup.
type TokenHasher interface {
	// Digest returns the deterministic keyed digest of token.
	Digest(token string) (string, error)
}

// HMACTokenHasher implements TokenHasher with HMAC-SHA256 keyed by a
// server-side secret. Rotating the secret invalidates every stored digest.
type HMACTokenHasher struct {
	secret []byte
}

// NewHMACTokenHasher creates a HMACTokenHasher. The secret is copied, so later
// changes to the caller's slice do not affect issued digests.
func NewHMACTokenHasher(secret []byte) (*HMACTokenHasher, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_INVALID_INPUT").Wrapf(ErrInvalidInput, "token secret cannot be empty")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &HMACTokenHasher{secret: key}, nil
}

// Digest computes base64(HMAC-SHA256(secret, token)).
func (h *HMACTokenHasher) Digest(token string) (string, error) {
	if token == "" {
		return "", oops.Code("TOKEN_INVALID_INPUT").Wrapf(ErrInvalidInput, "session token cannot be empty")
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(token))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
