// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Published counts events published by type.
	Published = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_published_total",
			Help: "Total number of authentication events published",
		},
		[]string{"type"},
	)

	// PublishFailures counts events that could not be published.
	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_events_publish_failures_total",
			Help: "Total number of authentication events that failed to publish",
		},
	)

	// Handled counts handler outcomes: "ok", "error", "malformed".
	Handled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_handled_total",
			Help: "Total number of authentication events handled by each handler",
		},
		[]string{"handler", "outcome"},
	)
)
