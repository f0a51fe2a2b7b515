// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medusa/medusa/internal/identity"
	"github.com/medusa/medusa/pkg/errutil"
)

func TestTokenCommands(t *testing.T) {
	deps := memoryDeps(t)
	tenant := ulid.Make().String()

	reg := run(t, deps, "user", "register", "--tenant", tenant, "--email", "t@example.com", "--password", "pw", "--client", "laptop")
	require.NoError(t, reg.err)
	raw := lastLine(reg.stdout)

	validated := runWithInput(t, deps, raw+"\n", "token", "validate")
	require.NoError(t, validated.err)
	assert.Contains(t, validated.stdout, "t@example.com")
	userID := strings.TrimSpace(strings.TrimPrefix(strings.Split(validated.stdout, "\n")[0], "ID:"))

	list := run(t, deps, "token", "list", "--tenant", tenant, "--user", userID)
	require.NoError(t, list.err)
	assert.Contains(t, list.stdout, "laptop")
	assert.Contains(t, list.stdout, "active")
	assert.NotContains(t, list.stdout, raw, "raw token must never be listed")

	rows := strings.Split(strings.TrimSpace(list.stdout), "\n")
	require.Len(t, rows, 2, "header plus one token")
	tokenID := strings.Fields(rows[1])[0]

	show := run(t, deps, "token", "show", "--tenant", tenant, "--user", userID, "--id", tokenID)
	require.NoError(t, show.err)
	assert.Contains(t, show.stdout, "Client:   laptop")

	require.NoError(t, run(t, deps, "token", "revoke", "--tenant", tenant, "--user", userID, "--id", tokenID).err)

	after := runWithInput(t, deps, raw+"\n", "token", "validate")
	assert.ErrorIs(t, after.err, identity.ErrTokenNotFound)

	again := run(t, deps, "token", "revoke", "--tenant", tenant, "--user", userID, "--id", tokenID)
	assert.ErrorIs(t, again.err, identity.ErrTokenNotFound)
}

func TestTokenValidate_Unknown(t *testing.T) {
	deps := memoryDeps(t)

	r := runWithInput(t, deps, "definitely-not-issued", "token", "validate")
	assert.ErrorIs(t, r.err, identity.ErrTokenNotFound)
}

func TestTokenValidate_FromEnvironment(t *testing.T) {
	deps := memoryDeps(t)
	tenant := ulid.Make().String()

	reg := run(t, deps, "user", "register", "--tenant", tenant, "--email", "env@example.com", "--password", "pw")
	require.NoError(t, reg.err)
	raw := lastLine(reg.stdout)

	deps.Getenv = func(key string) string {
		if key == EnvToken {
			return raw
		}
		return ""
	}
	r := runWithInput(t, deps, "ignored-when-env-is-set\n", "token", "validate")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "env@example.com")
}

func TestTokenValidate_RejectsTokenArgument(t *testing.T) {
	deps := memoryDeps(t)

	r := run(t, deps, "token", "validate", "raw-token-on-command-line")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "unknown command")
}

func TestTokenValidate_MissingToken(t *testing.T) {
	deps := memoryDeps(t)

	r := runWithInput(t, deps, "\n", "token", "validate")
	errutil.AssertErrorCode(t, r.err, "INVALID_ARGUMENT")
	assert.Contains(t, r.err.Error(), EnvToken)
}

func TestTokenRevoke_ForeignOwner(t *testing.T) {
	deps := memoryDeps(t)
	tenant := ulid.Make().String()

	var ids []string
	for _, email := range []string{"owner@example.com", "other@example.com"} {
		reg := run(t, deps, "user", "register", "--tenant", tenant, "--email", email, "--password", "pw")
		require.NoError(t, reg.err)
		v := runWithInput(t, deps, lastLine(reg.stdout), "token", "validate")
		require.NoError(t, v.err)
		ids = append(ids, strings.TrimSpace(strings.TrimPrefix(strings.Split(v.stdout, "\n")[0], "ID:")))
	}

	list := run(t, deps, "token", "list", "--tenant", tenant, "--user", ids[0])
	require.NoError(t, list.err)
	rows := strings.Split(strings.TrimSpace(list.stdout), "\n")
	tokenID := strings.Fields(rows[1])[0]

	r := run(t, deps, "token", "revoke", "--tenant", tenant, "--user", ids[1], "--id", tokenID)
	assert.ErrorIs(t, r.err, identity.ErrTokenNotFound)
}

func TestTokenState(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "active", tokenState(&identity.TokenView{ExpiresAt: now.Add(time.Second)}, now))
	assert.Equal(t, "expired", tokenState(&identity.TokenView{ExpiresAt: now}, now))
	assert.Equal(t, "expired", tokenState(&identity.TokenView{ExpiresAt: now.Add(-time.Second)}, now))
}
