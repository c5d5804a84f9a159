// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login attempts.
	// Labels:
	//   - provider: provider that accepted the credential, "none" on failure
	//   - outcome: "success", "failure", "error"
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"provider", "outcome"},
	)

	// LoginDuration measures credential verification, including bcrypt.
	LoginDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_login_duration_seconds",
			Help:    "Duration of login credential verification in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"outcome"},
	)

	// ProviderRejections counts rejections per provider.
	ProviderRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_provider_rejections_total",
			Help: "Total number of credentials rejected by each provider",
		},
		[]string{"provider", "kind"},
	)

	// TokensIssued counts encoded tokens.
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of tokens issued",
		},
	)

	// TokenDecodes counts token decode outcomes: "valid", "invalid", "expired".
	TokenDecodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_decodes_total",
			Help: "Total number of token decode attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ScopeTruncations counts tokens whose authority list was cut to fit.
	ScopeTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_token_scope_truncations_total",
			Help: "Total number of tokens with a truncated scope claim",
		},
	)

	// CookieOperations counts cookie writes by operation ("add", "delete").
	CookieOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_cookie_operations_total",
			Help: "Total number of authentication cookie operations",
		},
		[]string{"operation"},
	)

	// StoreBreakerState is the credential store breaker state per store:
	// 0 closed, 1 half-open, 2 open.
	StoreBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auth_store_breaker_state",
			Help: "Credential store circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"store"},
	)
)
