// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/workshop/internal/logging"
)

// Provider authenticates one category of credential.
type Provider interface {
	// Name returns the provider's name for logging and metrics.
	Name() string

	// Priority orders providers in the Manager. Lower values are tried first.
	Priority() int

	// Supports reports whether the provider handles kind.
	Supports(kind CredentialKind) bool

	// Authenticate verifies cred. Rejections are *Error values of kind
	// KindBadCredentials; infrastructure failures are KindServiceFailure.
	Authenticate(ctx context.Context, cred Credential) (*Authentication, error)
}

// SubjectLoader is implemented by providers able to rebuild an
// authentication from a token subject without a password.
type SubjectLoader interface {
	LoadBySubject(ctx context.Context, subject string) (*Authentication, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of password.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare returns nil when password matches hash. bcrypt compares in
// constant time.
func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// PasswordProvider authenticates login/password credentials against one
// CredentialStore.
//
// A store miss, a disabled principal and a wrong password produce the same
// ErrBadCredentials value after the same amount of bcrypt work. Only debug
// logs tell them apart.
type PasswordProvider struct {
	name     string
	priority int
	kind     PrincipalKind
	store    CredentialStore
	hasher   PasswordHasher

	// dummyHash is compared against on lookup misses and disabled
	// principals so every rejection costs one hash comparison at the
	// hasher's cost. It is hashed once, at construction.
	dummyHash string
}

// NewPasswordProvider creates a provider for principals of kind.
func NewPasswordProvider(name string, priority int, kind PrincipalKind, store CredentialStore, hasher PasswordHasher) *PasswordProvider {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		logging.Error().Err(err).Str("provider", name).Msg("Failed to create dummy password hash")
	}
	return &PasswordProvider{
		name:      name,
		priority:  priority,
		kind:      kind,
		store:     store,
		hasher:    hasher,
		dummyHash: dummy,
	}
}

// NewEmployeeProvider creates the provider for workshop employees.
func NewEmployeeProvider(store CredentialStore, hasher PasswordHasher) *PasswordProvider {
	return NewPasswordProvider("employees", 10, PrincipalEmployee, store, hasher)
}

// NewUserProvider creates the provider for external users.
func NewUserProvider(store CredentialStore, hasher PasswordHasher) *PasswordProvider {
	return NewPasswordProvider("users", 20, PrincipalUser, store, hasher)
}

// Name returns the provider name.
func (p *PasswordProvider) Name() string { return p.name }

// Priority returns the provider priority.
func (p *PasswordProvider) Priority() int { return p.priority }

// Supports reports whether kind is a password credential.
func (p *PasswordProvider) Supports(kind CredentialKind) bool {
	return kind == CredentialPassword
}

// Authenticate verifies cred against the store.
func (p *PasswordProvider) Authenticate(ctx context.Context, cred Credential) (*Authentication, error) {
	login := strings.TrimSpace(cred.Login)
	if login == "" || cred.Password == "" {
		return nil, ErrBadCredentials
	}

	principal, err := p.store.FindPrincipalByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			_ = p.hasher.Compare(p.dummyHash, cred.Password)
			p.reject(ctx, login, "not found")
			return nil, ErrBadCredentials
		}
		logging.Ctx(ctx).Error().Err(err).Str("provider", p.name).Msg("Credential store lookup failed")
		return nil, NewError(KindServiceFailure, "credential store lookup failed", err)
	}

	if !principal.Enabled {
		_ = p.hasher.Compare(p.dummyHash, cred.Password)
		p.reject(ctx, login, "disabled")
		return nil, ErrBadCredentials
	}

	if err := p.hasher.Compare(principal.PasswordHash, cred.Password); err != nil {
		p.reject(ctx, login, "password mismatch")
		return nil, ErrBadCredentials
	}

	if principal.Kind == "" {
		principal.Kind = p.kind
	}
	return newAuthentication(principal, p.name), nil
}

// LoadBySubject rebuilds an authentication from the store without a
// password. Disabled principals are rejected.
func (p *PasswordProvider) LoadBySubject(ctx context.Context, subject string) (*Authentication, error) {
	principal, err := p.store.FindPrincipalByLogin(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, NewError(KindServiceFailure, "credential store lookup failed", err)
	}
	if !principal.Enabled {
		return nil, ErrBadCredentials
	}
	if principal.Kind == "" {
		principal.Kind = p.kind
	}
	a := newAuthentication(principal, p.name)
	a.Method = MethodToken
	return a, nil
}

func (p *PasswordProvider) reject(ctx context.Context, login, reason string) {
	ProviderRejections.WithLabelValues(p.name, "bad_credentials").Inc()
	logging.Ctx(ctx).Debug().
		Str("provider", p.name).
		Str("login", logging.SanitizeLogin(login)).
		Str("reason", reason).
		Msg("Credential rejected")
}
