// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package errutil

import (
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	errCtx := oopsErr.Context()
	require.Contains(t, errCtx, key)
	assert.Equal(t, value, errCtx[key])
}

// AssertErrorIs asserts that err wraps target and carries code.
func AssertErrorIs(t testing.TB, err, target error, code string) {
	t.Helper()
	require.ErrorIs(t, err, target)
	AssertErrorCode(t, err, code)
}

// AssertNoSecret asserts that none of secrets appears in the message of err
// or, for oops errors, in any of its context values.
func AssertNoSecret(t testing.TB, err error, secrets ...string) {
	t.Helper()
	require.Error(t, err)

	texts := []string{err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		for key, value := range oopsErr.Context() {
			texts = append(texts, key+"="+fmt.Sprint(value))
		}
	}

	for _, secret := range secrets {
		for _, text := range texts {
			assert.NotContains(t, text, secret, "secret leaked into error")
		}
	}
}
