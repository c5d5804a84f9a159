// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import "context"

type contextKey string

// AuthenticationContextKey is the context key holding the *Authentication.
const AuthenticationContextKey contextKey = "auth_authentication"

// WithAuthentication returns a context carrying a. A nil a is stored as an
// explicit "unauthenticated" marker.
func WithAuthentication(ctx context.Context, a *Authentication) context.Context {
	return context.WithValue(ctx, AuthenticationContextKey, a)
}

// ClearAuthentication returns a context in which no authentication is visible.
func ClearAuthentication(ctx context.Context) context.Context {
	return context.WithValue(ctx, AuthenticationContextKey, (*Authentication)(nil))
}

// FromContext retrieves the authentication, if any.
func FromContext(ctx context.Context) (*Authentication, bool) {
	a, ok := ctx.Value(AuthenticationContextKey).(*Authentication)
	if !ok || a == nil {
		return nil, false
	}
	return a, true
}

// IsAuthenticated reports whether ctx carries an authentication.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}
