// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/workshop/internal/logging"
)

// Manager tries its providers in priority order and returns the first
// successful authentication (chain of responsibility).
//
// Error handling:
//   - A rejection from one provider moves on to the next provider
//   - A panic inside a provider is recovered and counts as a rejection
//   - No provider accepting means ErrAuthenticationRejected (fail closed)
//   - Every supporting provider failing with a service error means
//     ErrServiceFailure, so callers can tell an outage from bad input
type Manager struct {
	mu        sync.RWMutex
	providers []Provider
}

// NewManager creates a manager. Providers are stable-sorted by priority;
// ties keep registration order.
func NewManager(providers ...Provider) *Manager {
	m := &Manager{
		providers: make([]Provider, 0, len(providers)),
	}
	m.providers = append(m.providers, providers...)
	m.sortByPriority()
	return m
}

// AddProvider registers a provider.
func (m *Manager) AddProvider(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.providers = append(m.providers, p)
	m.sortByPriority()
}

// Providers returns the providers in the order they are tried.
func (m *Manager) Providers() []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Provider, len(m.providers))
	copy(result, m.providers)
	return result
}

// Authenticate verifies cred with each supporting provider in turn.
func (m *Manager) Authenticate(ctx context.Context, cred Credential) (*Authentication, error) {
	start := time.Now()
	a, err := m.authenticate(ctx, cred)

	outcome := "success"
	switch {
	case err == nil:
		LoginAttempts.WithLabelValues(a.Provider, outcome).Inc()
	case KindOf(err) == KindServiceFailure:
		outcome = "error"
		LoginAttempts.WithLabelValues("none", outcome).Inc()
	default:
		outcome = "failure"
		LoginAttempts.WithLabelValues("none", outcome).Inc()
	}
	LoginDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return a, err
}

func (m *Manager) authenticate(ctx context.Context, cred Credential) (*Authentication, error) {
	providers := m.Providers()

	tried, failed := 0, 0
	var lastFailure error

	for _, p := range providers {
		if !p.Supports(cred.Kind()) {
			continue
		}
		tried++

		a, err := callProvider(ctx, p, cred)
		if err == nil && a != nil {
			logging.Ctx(ctx).Debug().
				Str("provider", p.Name()).
				Str("subject", logging.SanitizeLogin(a.Subject)).
				Msg("Credential accepted")
			return a, nil
		}
		if KindOf(err) == KindServiceFailure {
			failed++
			lastFailure = err
		}
	}

	if tried > 0 && failed == tried {
		return nil, NewError(KindServiceFailure, "all providers failed", lastFailure)
	}
	return nil, ErrAuthenticationRejected
}

// callProvider invokes one provider, converting panics and foreign errors
// into rejections.
func callProvider(ctx context.Context, p Provider, cred Credential) (a *Authentication, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Str("provider", p.Name()).
				Interface("panic", r).
				Msg("Authentication provider panicked")
			ProviderRejections.WithLabelValues(p.Name(), "panic").Inc()
			a, err = nil, NewError(KindRejected, "provider failed", fmt.Errorf("panic: %v", r))
		}
	}()

	a, err = p.Authenticate(ctx, cred)
	if err != nil {
		var authErr *Error
		if !errors.As(err, &authErr) {
			ProviderRejections.WithLabelValues(p.Name(), "error").Inc()
			return nil, NewError(KindRejected, "provider failed", err)
		}
		return nil, err
	}
	if a == nil {
		return nil, NewError(KindRejected, "provider returned no authentication", nil)
	}
	return a, nil
}

// AuthenticateBySubject reloads a principal by token subject from the first
// provider that knows it. Used to refresh authorities on token requests.
func (m *Manager) AuthenticateBySubject(ctx context.Context, subject string) (*Authentication, error) {
	if subject == "" {
		return nil, ErrInvalidPrincipal
	}

	var lastFailure error
	for _, p := range m.Providers() {
		loader, ok := p.(SubjectLoader)
		if !ok {
			continue
		}
		a, err := loader.LoadBySubject(ctx, subject)
		if err == nil && a != nil {
			return a, nil
		}
		if KindOf(err) == KindServiceFailure {
			lastFailure = err
		}
	}

	if lastFailure != nil {
		return nil, lastFailure
	}
	return nil, ErrAuthenticationRejected
}

// sortByPriority sorts providers by priority. Caller holds the write lock
// or owns m exclusively.
func (m *Manager) sortByPriority() {
	sort.SliceStable(m.providers, func(i, j int) bool {
		return m.providers[i].Priority() < m.providers[j].Priority()
	})
}
