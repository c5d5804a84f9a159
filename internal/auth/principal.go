// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// PrincipalKind distinguishes the two principal populations.
type PrincipalKind string

const (
	// PrincipalEmployee is a workshop employee (internal domain).
	PrincipalEmployee PrincipalKind = "employee"

	// PrincipalUser is an external customer.
	PrincipalUser PrincipalKind = "user"
)

// ParsePrincipalKind converts a string to PrincipalKind.
func ParsePrincipalKind(s string) (PrincipalKind, bool) {
	switch PrincipalKind(strings.ToLower(strings.TrimSpace(s))) {
	case PrincipalEmployee:
		return PrincipalEmployee, true
	case PrincipalUser:
		return PrincipalUser, true
	default:
		return "", false
	}
}

// Principal is a stored identity as seen by the auth core. The core only
// ever reads principals.
type Principal struct {
	ID           string        `json:"id"`
	Kind         PrincipalKind `json:"kind"`
	Email        string        `json:"email,omitempty"`
	Phones       []string      `json:"phones,omitempty"`
	PasswordHash string        `json:"password_hash"`
	Enabled      bool          `json:"enabled"`
	Authorities  []string      `json:"authorities,omitempty"`
}

// Login returns the identifier used as token subject: the email, or the
// first phone when the principal has no email.
func (p *Principal) Login() string {
	if p.Email != "" {
		return p.Email
	}
	if len(p.Phones) > 0 {
		return p.Phones[0]
	}
	return ""
}

// NormalizeAuthorities trims names and drops blanks and duplicates while
// keeping first-seen order.
func NormalizeAuthorities(authorities []string) []string {
	out := make([]string, 0, len(authorities))
	seen := make(map[string]struct{}, len(authorities))
	for _, a := range authorities {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ValidateAuthorities rejects names the token scope cannot carry intact.
// The scope is split on commas and stripped of its outer brackets, so a
// name holding a comma, or opening with '[' or closing with ']', would
// come back as different authorities.
func ValidateAuthorities(authorities []string) error {
	for _, a := range authorities {
		a = strings.TrimSpace(a)
		if strings.Contains(a, ",") || strings.HasPrefix(a, "[") || strings.HasSuffix(a, "]") {
			return NewError(KindInvalidPrincipal, fmt.Sprintf("authority %q cannot be carried in a token scope", a), nil)
		}
	}
	return nil
}

// CredentialKind identifies what a credential carries.
type CredentialKind string

const (
	// CredentialPassword is a login identifier plus plaintext password.
	CredentialPassword CredentialKind = "password"
)

// Credential is a login attempt. It lives for one request only.
type Credential struct {
	Login    string
	Password string
}

// Kind returns the credential kind.
func (c Credential) Kind() CredentialKind {
	return CredentialPassword
}

// String never includes the password.
func (c Credential) String() string {
	return "Credential{Login: " + c.Login + "}"
}

// AuthMethod records how a request was authenticated.
type AuthMethod string

const (
	MethodPassword AuthMethod = "password"
	MethodToken    AuthMethod = "token"
)

// Authentication is the authenticated principal installed into the
// request context.
type Authentication struct {
	Subject     string        `json:"subject"`
	Kind        PrincipalKind `json:"kind,omitempty"`
	PrincipalID string        `json:"principal_id,omitempty"`
	Authorities []string      `json:"authorities"`
	Method      AuthMethod    `json:"method"`
	Provider    string        `json:"provider,omitempty"`
	IssuedAt    time.Time     `json:"issued_at,omitempty"`
	ExpiresAt   time.Time     `json:"expires_at,omitempty"`
}

// newAuthentication builds a password-method authentication for p.
func newAuthentication(p *Principal, provider string) *Authentication {
	return &Authentication{
		Subject:     p.Login(),
		Kind:        p.Kind,
		PrincipalID: p.ID,
		Authorities: NormalizeAuthorities(p.Authorities),
		Method:      MethodPassword,
		Provider:    provider,
		IssuedAt:    time.Now(),
	}
}

// HasAuthority reports whether the authentication carries name.
func (a *Authentication) HasAuthority(name string) bool {
	return a != nil && slices.Contains(a.Authorities, name)
}
