// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/workshop/internal/api"
	"github.com/tomtom215/workshop/internal/auth"
	"github.com/tomtom215/workshop/internal/config"
	"github.com/tomtom215/workshop/internal/events"
	"github.com/tomtom215/workshop/internal/logging"
)

// principalStores holds one credential store per principal kind, plus the
// pieces main needs to seed, health-check and close them.
type principalStores struct {
	employees auth.CredentialStore
	users     auth.CredentialStore

	put      map[auth.PrincipalKind]func(ctx context.Context, p *auth.Principal) error
	breakers map[string]*auth.BreakerStore
	db       *badger.DB
}

// openStores opens the configured backend, seeds it and wraps each kind in
// a circuit breaker when enabled.
func openStores(ctx context.Context, cfg config.StoreConfig) (*principalStores, error) {
	s := &principalStores{
		put:      make(map[auth.PrincipalKind]func(ctx context.Context, p *auth.Principal) error, 2),
		breakers: make(map[string]*auth.BreakerStore, 2),
	}

	switch cfg.Backend {
	case "badger":
		db, err := auth.OpenBadger(cfg.Path)
		if err != nil {
			return nil, err
		}
		s.db = db
		employees := auth.NewBadgerStore(db, auth.PrincipalEmployee)
		users := auth.NewBadgerStore(db, auth.PrincipalUser)
		s.employees, s.users = employees, users
		s.put[auth.PrincipalEmployee] = employees.Put
		s.put[auth.PrincipalUser] = users.Put
	case "memory", "":
		employees := auth.NewMemoryStore()
		users := auth.NewMemoryStore()
		s.employees, s.users = employees, users
		s.put[auth.PrincipalEmployee] = func(_ context.Context, p *auth.Principal) error { return employees.Put(p) }
		s.put[auth.PrincipalUser] = func(_ context.Context, p *auth.Principal) error { return users.Put(p) }
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.SeedFile != "" {
		n, err := s.seed(ctx, cfg.SeedFile, auth.BcryptHasher{})
		if err != nil {
			return nil, errors.Join(err, s.Close())
		}
		logging.Info().Int("principals", n).Str("file", cfg.SeedFile).Msg("Credential store seeded")
	}

	if cfg.Breaker.Enabled {
		s.employees = s.guard("employees", s.employees, cfg.Breaker)
		s.users = s.guard("users", s.users, cfg.Breaker)
	}
	return s, nil
}

func (s *principalStores) guard(name string, next auth.CredentialStore, cfg config.BreakerConfig) auth.CredentialStore {
	b := auth.NewBreakerStore(next, auth.BreakerConfig{
		Name:             name,
		MaxRequests:      cfg.MaxRequests,
		Interval:         cfg.Interval,
		Timeout:          cfg.Timeout,
		FailureThreshold: cfg.FailureThreshold,
	})
	s.breakers[name] = b
	return b
}

// seed loads principals from a YAML seed file. Plain passwords are hashed
// with hasher before storing.
func (s *principalStores) seed(ctx context.Context, path string, hasher auth.PasswordHasher) (int, error) {
	seed, err := config.LoadSeed(path)
	if err != nil {
		return 0, err
	}

	for _, sp := range seed.Principals {
		kind := auth.PrincipalKind(sp.Kind)
		put, ok := s.put[kind]
		if !ok {
			return 0, fmt.Errorf("seed principal %s: unknown kind %q", sp.ID, sp.Kind)
		}

		hash := sp.PasswordHash
		if sp.Password != "" {
			hash, err = hasher.Hash(sp.Password)
			if err != nil {
				return 0, fmt.Errorf("seed principal %s: hash password: %w", sp.ID, err)
			}
		}

		p := &auth.Principal{
			ID:           sp.ID,
			Kind:         kind,
			Email:        sp.Email,
			Phones:       sp.Phones,
			PasswordHash: hash,
			Enabled:      sp.Enabled,
			Authorities:  sp.Authorities,
		}
		if err := put(ctx, p); err != nil {
			return 0, fmt.Errorf("seed principal %s: %w", sp.ID, err)
		}
	}
	return len(seed.Principals), nil
}

// Close releases the badger database, if any.
func (s *principalStores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// newAuthenticator chains the employee provider before the user provider.
func newAuthenticator(s *principalStores) *auth.Manager {
	hasher := auth.BcryptHasher{}
	return auth.NewManager(
		auth.NewEmployeeProvider(s.employees, hasher),
		auth.NewUserProvider(s.users, hasher),
	)
}

// newEventSink returns the bus carrying login events to the audit handler,
// or a direct audit sink when the bus is disabled. bus is nil in that case.
func newEventSink(cfg config.EventsConfig, security *logging.SecurityLogger) (events.Sink, *events.Bus) {
	if !cfg.Enabled {
		return events.NewAuditSink(security), nil
	}
	bus := events.NewBus(events.BusConfig{
		Topic:  cfg.Topic,
		Buffer: cfg.Buffer,
	}, logging.NewWatermillAdapter(logging.Logger()))
	bus.AddHandler("audit", events.AuditHandler(security))
	return bus, bus
}

// healthChecks reports the store breakers and, when present, the event bus.
func healthChecks(s *principalStores, bus *events.Bus) []api.HealthCheck {
	var checks []api.HealthCheck
	for name, b := range s.breakers {
		checks = append(checks, api.HealthCheck{
			Name: "store_" + name,
			Check: func(context.Context) error {
				if b.State() == gobreaker.StateOpen {
					return auth.ErrStoreUnavailable
				}
				return nil
			},
		})
	}
	if s.db != nil {
		db := s.db
		checks = append(checks, api.HealthCheck{
			Name: "badger",
			Check: func(context.Context) error {
				if db.IsClosed() {
					return errors.New("badger database is closed")
				}
				return nil
			},
		})
	}
	if bus != nil {
		checks = append(checks, api.HealthCheck{
			Name: "events",
			Check: func(context.Context) error {
				select {
				case <-bus.Running():
					return nil
				default:
					return errors.New("event router not running")
				}
			},
		})
	}
	return checks
}
