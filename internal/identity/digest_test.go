// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medusa/medusa/internal/identity"
	"github.com/medusa/medusa/pkg/errutil"
)

func TestNewHMACTokenHasher(t *testing.T) {
	_, err := identity.NewHMACTokenHasher(nil)
	errutil.AssertErrorIs(t, err, identity.ErrInvalidInput, "TOKEN_INVALID_INPUT")

	_, err = identity.NewHMACTokenHasher([]byte{})
	errutil.AssertErrorIs(t, err, identity.ErrInvalidInput, "TOKEN_INVALID_INPUT")
}

func TestHMACTokenHasher_Digest(t *testing.T) {
	hasher, err := identity.NewHMACTokenHasher([]byte("secret"))
	require.NoError(t, err)

	t.Run("matches HMAC-SHA256 reference value", func(t *testing.T) {
		digest, err := hasher.Digest("token")
		require.NoError(t, err)
		assert.Equal(t, "6UERDj0r/oJiHw4+FDRzDXMF0QbF9oyHFl0LJ6RhGko=", digest)
	})

	t.Run("is deterministic", func(t *testing.T) {
		d1, err := hasher.Digest("abc")
		require.NoError(t, err)
		d2, err := hasher.Digest("abc")
		require.NoError(t, err)
		assert.Equal(t, d1, d2)
	})

	t.Run("distinct tokens give distinct digests", func(t *testing.T) {
		d1, err := hasher.Digest("abc")
		require.NoError(t, err)
		d2, err := hasher.Digest("abd")
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("depends on the secret", func(t *testing.T) {
		other, err := identity.NewHMACTokenHasher([]byte("other-secret"))
		require.NoError(t, err)
		d1, err := hasher.Digest("abc")
		require.NoError(t, err)
		d2, err := other.Digest("abc")
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("rejects empty token", func(t *testing.T) {
		_, err := hasher.Digest("")
		errutil.AssertErrorIs(t, err, identity.ErrInvalidInput, "TOKEN_INVALID_INPUT")
	})
}

func TestHMACTokenHasher_SecretIsCopied(t *testing.T) {
	secret := []byte("secret")
	hasher, err := identity.NewHMACTokenHasher(secret)
	require.NoError(t, err)

	before, err := hasher.Digest("token")
	require.NoError(t, err)
	secret[0] = 'X'
	after, err := hasher.Digest("token")
	require.NoError(t, err)

	assert.Equal(t, before, after)
}
