// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decisions counts permission decisions by action and outcome. Entity
	// types come from request paths, so they are not a label.
	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of permission decisions",
		},
		[]string{"action", "decision"},
	)

	// DecisionDuration tracks the latency of permission decisions.
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of permission decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"cache_hit"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_hits_total",
			Help: "Total number of permission cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_misses_total",
			Help: "Total number of permission cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_evictions_total",
			Help: "Total number of permission cache evictions (expiry, capacity or purge)",
		},
	)

	// EvaluationErrors counts enforcer errors. Each one is also a denial.
	EvaluationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_errors_total",
			Help: "Total number of permission evaluation errors",
		},
	)

	PolicyLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_policy_loads_total",
			Help: "Total number of policy loads",
		},
		[]string{"result"},
	)

	PolicyRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authz_policy_rules",
			Help: "Current number of policy rules loaded",
		},
	)
)

// RecordDecision records a permission decision.
func RecordDecision(action string, allowed bool, duration time.Duration, cacheHit bool) {
	if action == "" {
		action = "unknown"
	}
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	Decisions.WithLabelValues(action, decision).Inc()

	hit := "false"
	if cacheHit {
		hit = "true"
	}
	DecisionDuration.WithLabelValues(hit).Observe(duration.Seconds())
}

// RecordPolicyLoad records a policy load attempt.
func RecordPolicyLoad(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	PolicyLoads.WithLabelValues(result).Inc()
}
