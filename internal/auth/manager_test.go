// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"errors"
	"testing"
)

func TestManager_ProviderOrder(t *testing.T) {
	t.Parallel()

	m := NewManager(
		accepting("c", 30),
		accepting("a1", 10),
		accepting("b", 20),
		accepting("a2", 10),
	)
	m.AddProvider(accepting("a3", 10))

	var names []string
	for _, p := range m.Providers() {
		names = append(names, p.Name())
	}
	want := []string{"a1", "a2", "a3", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("providers = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("providers = %v, want %v", names, want)
		}
	}
}

func TestManager_FirstSuccessWins(t *testing.T) {
	t.Parallel()

	first := rejecting("first", 1)
	second := accepting("second", 2)
	third := accepting("third", 3)
	m := NewManager(third, second, first)

	a, err := m.Authenticate(context.Background(), Credential{Login: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if a.Provider != "second" {
		t.Errorf("Provider = %q, want second", a.Provider)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Errorf("calls = %d/%d/%d, want 1/1/0", first.calls, second.calls, third.calls)
	}
}

func TestManager_FailsClosed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		providers []Provider
	}{
		{"no providers", nil},
		{"all reject", []Provider{rejecting("a", 1), rejecting("b", 2)}},
		{"none supports", []Provider{&stubProvider{name: "x", supports: false}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewManager(tt.providers...)
			a, err := m.Authenticate(context.Background(), Credential{Login: "a@b.com", Password: "x"})
			if !errors.Is(err, ErrAuthenticationRejected) {
				t.Errorf("err = %v, want ErrAuthenticationRejected", err)
			}
			if a != nil {
				t.Error("expected no authentication")
			}
		})
	}
}

func TestManager_PanicIsRejection(t *testing.T) {
	t.Parallel()

	panicking := &stubProvider{
		name:     "panicking",
		priority: 1,
		supports: true,
		fn: func(context.Context, Credential) (*Authentication, error) {
			panic("provider bug")
		},
	}
	fallback := accepting("fallback", 2)

	a, err := NewManager(panicking, fallback).Authenticate(context.Background(), Credential{Login: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if a.Provider != "fallback" {
		t.Errorf("Provider = %q, want fallback", a.Provider)
	}

	_, err = NewManager(panicking).Authenticate(context.Background(), Credential{Login: "a@b.com", Password: "x"})
	if !errors.Is(err, ErrAuthenticationRejected) {
		t.Errorf("err = %v, want ErrAuthenticationRejected", err)
	}
}

func TestManager_ForeignErrorIsRejection(t *testing.T) {
	t.Parallel()

	odd := &stubProvider{
		name:     "odd",
		priority: 1,
		supports: true,
		fn: func(context.Context, Credential) (*Authentication, error) {
			return nil, errors.New("unexpected")
		},
	}
	nilAuth := &stubProvider{
		name:     "nil",
		priority: 2,
		supports: true,
		fn: func(context.Context, Credential) (*Authentication, error) {
			return nil, nil
		},
	}

	_, err := NewManager(odd, nilAuth).Authenticate(context.Background(), Credential{Login: "a@b.com", Password: "x"})
	if !errors.Is(err, ErrAuthenticationRejected) {
		t.Errorf("err = %v, want ErrAuthenticationRejected", err)
	}
}

func TestManager_AllProvidersDown(t *testing.T) {
	t.Parallel()

	m := NewManager(
		NewEmployeeProvider(failingStore{err: ErrStoreUnavailable}, testHasher),
		NewUserProvider(failingStore{err: ErrStoreUnavailable}, testHasher),
	)
	_, err := m.Authenticate(context.Background(), Credential{Login: "a@b.com", Password: "x"})
	if KindOf(err) != KindServiceFailure {
		t.Errorf("kind = %v, want service failure", KindOf(err))
	}

	// One store down and the other rejecting is an ordinary rejection.
	m = NewManager(
		NewEmployeeProvider(failingStore{err: ErrStoreUnavailable}, testHasher),
		NewUserProvider(NewMemoryStore(), testHasher),
	)
	_, err = m.Authenticate(context.Background(), Credential{Login: "a@b.com", Password: "x"})
	if !errors.Is(err, ErrAuthenticationRejected) {
		t.Errorf("err = %v, want ErrAuthenticationRejected", err)
	}
}

// A user unknown to the employee store is authenticated by the user
// provider.
func TestManager_ProviderFallback(t *testing.T) {
	t.Parallel()

	employees := newTestStore(t, managerPrincipal(t))
	users := newTestStore(t, &Principal{
		ID:           "u1",
		Kind:         PrincipalUser,
		Email:        "customer@b.com",
		PasswordHash: hashPassword(t, "customer-pass"),
		Enabled:      true,
		Authorities:  []string{"USER"},
	})
	m := NewManager(NewEmployeeProvider(employees, testHasher), NewUserProvider(users, testHasher))

	a, err := m.Authenticate(context.Background(), Credential{Login: "customer@b.com", Password: "customer-pass"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if a.Provider != "users" || a.Kind != PrincipalUser || a.Subject != "customer@b.com" {
		t.Errorf("unexpected authentication %+v", a)
	}

	a, err = m.Authenticate(context.Background(), Credential{Login: "a@b.com", Password: "correct"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if a.Provider != "employees" {
		t.Errorf("Provider = %q, want employees", a.Provider)
	}
}

func TestManager_AuthenticateBySubject(t *testing.T) {
	t.Parallel()

	employees := newTestStore(t, managerPrincipal(t))
	m := NewManager(
		NewEmployeeProvider(employees, testHasher),
		NewUserProvider(NewMemoryStore(), testHasher),
		accepting("no-loader", 99),
	)

	a, err := m.AuthenticateBySubject(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("AuthenticateBySubject: %v", err)
	}
	if a.Provider != "employees" || a.Method != MethodToken {
		t.Errorf("unexpected authentication %+v", a)
	}

	if _, err := m.AuthenticateBySubject(context.Background(), "nobody@b.com"); !errors.Is(err, ErrAuthenticationRejected) {
		t.Errorf("unknown subject: err = %v, want ErrAuthenticationRejected", err)
	}
	if _, err := m.AuthenticateBySubject(context.Background(), ""); !errors.Is(err, ErrInvalidPrincipal) {
		t.Errorf("empty subject: err = %v, want ErrInvalidPrincipal", err)
	}

	down := NewManager(NewEmployeeProvider(failingStore{err: ErrStoreUnavailable}, testHasher))
	if _, err := down.AuthenticateBySubject(context.Background(), "a@b.com"); KindOf(err) != KindServiceFailure {
		t.Errorf("store down: kind = %v, want service failure", KindOf(err))
	}
}
