// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testIssuer   = "workshop"
	testAudience = "workshop-web"
)

var testHasher = BcryptHasher{Cost: bcrypt.MinCost}

func newTestCodec(t *testing.T, ttl time.Duration) *TokenCodec {
	t.Helper()

	codec, err := NewTokenCodec(TokenConfig{
		Secret:   []byte(testSecret),
		Issuer:   testIssuer,
		Audience: testAudience,
		TTL:      ttl,
	})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return codec
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := testHasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func newTestStore(t *testing.T, principals ...*Principal) *MemoryStore {
	t.Helper()

	store := NewMemoryStore()
	for _, p := range principals {
		if err := store.Put(p); err != nil {
			t.Fatalf("put principal %s: %v", p.ID, err)
		}
	}
	return store
}

// managerPrincipal is the employee used by the login scenarios.
func managerPrincipal(t *testing.T) *Principal {
	t.Helper()

	return &Principal{
		ID:           "1",
		Kind:         PrincipalEmployee,
		Email:        "a@b.com",
		PasswordHash: hashPassword(t, "correct"),
		Enabled:      true,
		Authorities:  []string{"Manager"},
	}
}

// stubProvider is a Provider driven by a function.
type stubProvider struct {
	name     string
	priority int
	supports bool
	fn       func(ctx context.Context, cred Credential) (*Authentication, error)
	calls    int
}

func (s *stubProvider) Name() string                   { return s.name }
func (s *stubProvider) Priority() int                  { return s.priority }
func (s *stubProvider) Supports(_ CredentialKind) bool { return s.supports }

func (s *stubProvider) Authenticate(ctx context.Context, cred Credential) (*Authentication, error) {
	s.calls++
	return s.fn(ctx, cred)
}

func accepting(name string, priority int) *stubProvider {
	return &stubProvider{
		name:     name,
		priority: priority,
		supports: true,
		fn: func(_ context.Context, cred Credential) (*Authentication, error) {
			return &Authentication{Subject: cred.Login, Provider: name, Method: MethodPassword}, nil
		},
	}
}

func rejecting(name string, priority int) *stubProvider {
	return &stubProvider{
		name:     name,
		priority: priority,
		supports: true,
		fn: func(context.Context, Credential) (*Authentication, error) {
			return nil, ErrBadCredentials
		},
	}
}

// failingStore fails every lookup with err.
type failingStore struct {
	err error
}

func (s failingStore) FindPrincipalByLogin(context.Context, string) (*Principal, error) {
	return nil, s.err
}
