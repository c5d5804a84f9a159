// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/workshop/internal/logging"
)

// BreakerConfig tunes a BreakerStore.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// BreakerStore guards a CredentialStore with a circuit breaker. Lookup
// misses and caller cancellations do not count as failures. While the
// breaker is open every lookup fails fast with ErrStoreUnavailable.
type BreakerStore struct {
	next CredentialStore
	cb   *gobreaker.CircuitBreaker[*Principal]
}

// NewBreakerStore wraps next.
func NewBreakerStore(next CredentialStore, cfg BreakerConfig) *BreakerStore {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	StoreBreakerState.WithLabelValues(cfg.Name).Set(0)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrPrincipalNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			StoreBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("store", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Credential store circuit breaker state changed")
		},
	}

	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[*Principal](settings),
	}
}

// FindPrincipalByLogin delegates to the wrapped store through the breaker.
func (s *BreakerStore) FindPrincipalByLogin(ctx context.Context, identifier string) (*Principal, error) {
	p, err := s.cb.Execute(func() (*Principal, error) {
		return s.next.FindPrincipalByLogin(ctx, identifier)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, s.cb.Name(), err)
	}
	return p, err
}

// State returns the breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}
