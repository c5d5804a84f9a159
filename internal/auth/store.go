// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// Store errors. They never leave the auth core: providers turn them into
// ErrBadCredentials or ErrServiceFailure.
var (
	// ErrPrincipalNotFound is returned by a store lookup miss.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrStoreUnavailable is returned when the backing store cannot answer.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// CredentialStore looks up principals by login identifier.
//
// Implementations must try the identifier as an email first and only then
// as a phone number (sequential fallback). A miss returns
// ErrPrincipalNotFound; infrastructure failures return any other error.
type CredentialStore interface {
	FindPrincipalByLogin(ctx context.Context, identifier string) (*Principal, error)
}

// normalizeEmail lower-cases and trims an email for index lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone keeps a leading '+' and digits only, so "+38 (050) 123-45-67"
// and "+380501234567" index identically.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// looksLikeEmail skips the phone index lookup for identifiers containing '@'.
func looksLikeEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}

// clonePrincipal returns a deep copy so callers cannot mutate store state.
func clonePrincipal(p *Principal) *Principal {
	c := *p
	c.Phones = append([]string(nil), p.Phones...)
	c.Authorities = append([]string(nil), p.Authorities...)
	return &c
}
