// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for authentication metrics.
const (
	ResultSuccess           = "success"
	ResultConflict          = "conflict"
	ResultUnauthorized      = "unauthorized"
	ResultInvalidInput      = "invalid_input"
	ResultTokenNotFound     = "token_not_found"
	ResultTokenExpired      = "token_expired"
	ResultPrincipalNotFound = "principal_not_found"
	ResultError             = "error"
)

// AuthAttempts counts register and login attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "medusa_auth_attempts_total",
		Help: "Total number of registration and login attempts",
	},
	[]string{"operation", "result"},
)

// TokenValidations counts session token validations by outcome.
var TokenValidations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "medusa_token_validations_total",
		Help: "Total number of session token validations",
	},
	[]string{"result"},
)

// TokensIssued counts issued session tokens.
var TokensIssued = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "medusa_tokens_issued_total",
		Help: "Total number of session tokens issued",
	},
)

// RegisterMetrics registers identity metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts)
	reg.MustRegister(TokenValidations)
	reg.MustRegister(TokensIssued)
}

// resultOf maps an error to a metric result label.
func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrConflict):
		return ResultConflict
	case errors.Is(err, ErrUnauthorized):
		return ResultUnauthorized
	case errors.Is(err, ErrInvalidInput):
		return ResultInvalidInput
	case errors.Is(err, ErrTokenNotFound):
		return ResultTokenNotFound
	case errors.Is(err, ErrTokenExpired):
		return ResultTokenExpired
	case errors.Is(err, ErrPrincipalNotFound):
		return ResultPrincipalNotFound
	default:
		return ResultError
	}
}
