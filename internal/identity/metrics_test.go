// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medusa/medusa/internal/identity"
)

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	identity.RegisterMetrics(reg)

	assert.Panics(t, func() { identity.RegisterMetrics(reg) }, "duplicate registration panics")
}

func TestMetrics_CountOutcomes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, &clock{now: time.Now()})
	tenant := ulid.Make()

	registered := testutil.ToFloat64(identity.AuthAttempts.WithLabelValues("register", identity.ResultSuccess))
	conflicts := testutil.ToFloat64(identity.AuthAttempts.WithLabelValues("register", identity.ResultConflict))
	unauthorized := testutil.ToFloat64(identity.AuthAttempts.WithLabelValues("login", identity.ResultUnauthorized))
	notFound := testutil.ToFloat64(identity.TokenValidations.WithLabelValues(identity.ResultTokenNotFound))
	issued := testutil.ToFloat64(identity.TokensIssued)

	_, err := svc.Register(ctx, tenant, "m@b.com", "Secret123!", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, tenant, "m@b.com", "Secret123!", "")
	require.Error(t, err)
	_, err = svc.Login(ctx, tenant, "m@b.com", "nope", "")
	require.Error(t, err)
	_, err = svc.ValidateToken(ctx, "unknown")
	require.Error(t, err)

	assert.InDelta(t, registered+1, testutil.ToFloat64(identity.AuthAttempts.WithLabelValues("register", identity.ResultSuccess)), 0)
	assert.InDelta(t, conflicts+1, testutil.ToFloat64(identity.AuthAttempts.WithLabelValues("register", identity.ResultConflict)), 0)
	assert.InDelta(t, unauthorized+1, testutil.ToFloat64(identity.AuthAttempts.WithLabelValues("login", identity.ResultUnauthorized)), 0)
	assert.InDelta(t, notFound+1, testutil.ToFloat64(identity.TokenValidations.WithLabelValues(identity.ResultTokenNotFound)), 0)
	assert.InDelta(t, issued+1, testutil.ToFloat64(identity.TokensIssued), 0)
}
