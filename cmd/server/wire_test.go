// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/workshop/internal/auth"
	"github.com/tomtom215/workshop/internal/config"
	"github.com/tomtom215/workshop/internal/logging"
)

const testSeed = `principals:
  - kind: employee
    id: "1"
    email: hr@workshop.test
    password: hr-password
    enabled: true
    authorities: [HR_READ]
  - kind: user
    id: "7"
    phones: ["+15550100"]
    password: user-password
    enabled: true
  - kind: employee
    id: "2"
    email: gone@workshop.test
    password: gone-password
    enabled: false
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(testSeed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func openTestStores(t *testing.T, cfg config.StoreConfig) *principalStores {
	t.Helper()
	stores, err := openStores(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStores() error = %v", err)
	}
	t.Cleanup(func() {
		if err := stores.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return stores
}

func TestOpenStores_SeedsEachBackend(t *testing.T) {
	seed := writeSeed(t)

	for _, backend := range []string{"memory", "badger"} {
		t.Run(backend, func(t *testing.T) {
			stores := openTestStores(t, config.StoreConfig{Backend: backend, SeedFile: seed})
			manager := newAuthenticator(stores)
			ctx := context.Background()

			tests := []struct {
				name     string
				cred     auth.Credential
				wantKind auth.PrincipalKind
				wantErr  bool
			}{
				{"employee by email", auth.Credential{Login: "hr@workshop.test", Password: "hr-password"}, auth.PrincipalEmployee, false},
				{"user by phone", auth.Credential{Login: "+15550100", Password: "user-password"}, auth.PrincipalUser, false},
				{"wrong password", auth.Credential{Login: "hr@workshop.test", Password: "nope"}, "", true},
				{"disabled employee", auth.Credential{Login: "gone@workshop.test", Password: "gone-password"}, "", true},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					a, err := manager.Authenticate(ctx, tt.cred)
					if tt.wantErr {
						if err == nil {
							t.Fatalf("Authenticate() = %+v, want error", a)
						}
						return
					}
					if err != nil {
						t.Fatalf("Authenticate() error = %v", err)
					}
					if a.Kind != tt.wantKind {
						t.Errorf("Kind = %q, want %q", a.Kind, tt.wantKind)
					}
				})
			}
		})
	}
}

func TestOpenStores_RejectsUnknownBackend(t *testing.T) {
	if _, err := openStores(context.Background(), config.StoreConfig{Backend: "postgres"}); err == nil {
		t.Fatal("openStores() error = nil, want error")
	}
}

func TestOpenStores_InvalidSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	bad := "principals:\n  - kind: robot\n    id: \"1\"\n    email: a@b.test\n    password: x\n"
	if err := os.WriteFile(path, []byte(bad), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := openStores(context.Background(), config.StoreConfig{Backend: "memory", SeedFile: path}); err == nil {
		t.Fatal("openStores() error = nil, want error")
	}
}

func TestOpenStores_RejectsScopeBreakingAuthority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	bad := "principals:\n  - kind: employee\n    id: \"1\"\n    email: lead@workshop.test\n    password: x\n    enabled: true\n    authorities: [\"Shop Lead, ADMIN_FULL\"]\n"
	if err := os.WriteFile(path, []byte(bad), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	for _, backend := range []string{"memory", "badger"} {
		t.Run(backend, func(t *testing.T) {
			_, err := openStores(context.Background(), config.StoreConfig{Backend: backend, SeedFile: path})
			if !errors.Is(err, auth.ErrInvalidPrincipal) {
				t.Fatalf("openStores() error = %v, want ErrInvalidPrincipal", err)
			}
		})
	}
}

func TestHealthChecks(t *testing.T) {
	stores := openTestStores(t, config.StoreConfig{
		Backend: "badger",
		Breaker: config.BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Timeout:          time.Second,
			FailureThreshold: 3,
		},
	})

	sink, bus := newEventSink(config.EventsConfig{Enabled: true, Topic: "auth.events"}, logging.NewSecurityLogger())
	if sink == nil || bus == nil {
		t.Fatal("newEventSink() returned nil bus with events enabled")
	}
	t.Cleanup(func() { _ = bus.Close() })

	checks := healthChecks(stores, bus)
	results := make(map[string]error, len(checks))
	for _, hc := range checks {
		results[hc.Name] = hc.Check(context.Background())
	}

	for _, name := range []string{"store_employees", "store_users", "badger"} {
		err, ok := results[name]
		if !ok {
			t.Errorf("missing health check %q", name)
			continue
		}
		if err != nil {
			t.Errorf("%s check error = %v", name, err)
		}
	}
	if err, ok := results["events"]; !ok || err == nil {
		t.Errorf("events check = %v, want error before the router runs", err)
	}
}

func TestNewEventSink_Disabled(t *testing.T) {
	sink, bus := newEventSink(config.EventsConfig{}, logging.NewSecurityLogger())
	if bus != nil {
		t.Error("bus != nil with events disabled")
	}
	if sink == nil {
		t.Fatal("sink = nil, want audit sink")
	}
}
