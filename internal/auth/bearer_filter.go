// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"net/http"

	"github.com/tomtom215/workshop/internal/logging"
)

// SubjectAuthenticator reloads an authentication by token subject.
// *Manager implements it.
type SubjectAuthenticator interface {
	AuthenticateBySubject(ctx context.Context, subject string) (*Authentication, error)
}

// BearerFilterConfig configures a BearerFilter.
type BearerFilterConfig struct {
	// Matcher limits the filter to some requests. Nil matches every request.
	Matcher RequestMatcher

	CookieName string

	// ReloadPrincipal rebuilds the authentication from the credential store
	// instead of trusting the token's scope claim.
	ReloadPrincipal bool
}

// BearerFilter authenticates requests from the token cookie.
//
// It never writes a response. A missing, invalid or expired cookie leaves
// the request unauthenticated and access decisions to later handlers.
type BearerFilter struct {
	cfg    BearerFilterConfig
	codec  *TokenCodec
	loader SubjectAuthenticator
}

// NewBearerFilter creates a cookie token filter. loader may be nil unless
// cfg.ReloadPrincipal is set.
func NewBearerFilter(cfg BearerFilterConfig, codec *TokenCodec, loader SubjectAuthenticator) (*BearerFilter, error) {
	if codec == nil {
		return nil, NewError(KindInvalidArgument, "token codec is required", nil)
	}
	if cfg.CookieName == "" {
		return nil, NewError(KindInvalidArgument, "cookie name is required", nil)
	}
	if cfg.ReloadPrincipal && loader == nil {
		return nil, NewError(KindInvalidArgument, "principal reload needs a subject authenticator", nil)
	}
	return &BearerFilter{cfg: cfg, codec: codec, loader: loader}, nil
}

// Middleware wraps next.
func (f *BearerFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.cfg.Matcher != nil && !f.cfg.Matcher.Matches(r) {
			next.ServeHTTP(w, r)
			return
		}
		if IsAuthenticated(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(f.cfg.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		a := f.authenticate(r.Context(), cookie.Value)
		if a == nil {
			next.ServeHTTP(w, r.WithContext(ClearAuthentication(r.Context())))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthentication(r.Context(), a)))
	})
}

// authenticate returns nil for any token that cannot be trusted.
func (f *BearerFilter) authenticate(ctx context.Context, token string) *Authentication {
	decoded, err := f.codec.Decode(token)
	if err != nil {
		logging.Ctx(ctx).Debug().
			Str("kind", KindOf(err).String()).
			Str("token", logging.SanitizeToken(token)).
			Msg("Ignoring authentication cookie")
		return nil
	}

	if f.cfg.ReloadPrincipal {
		a, err := f.loader.AuthenticateBySubject(ctx, decoded.Subject)
		if err != nil {
			logging.Ctx(ctx).Debug().
				Err(err).
				Str("subject", logging.SanitizeLogin(decoded.Subject)).
				Msg("Token subject could not be reloaded")
			return nil
		}
		a.Method = MethodToken
		a.IssuedAt = decoded.IssuedAt
		a.ExpiresAt = decoded.ExpiresAt
		return a
	}

	return &Authentication{
		Subject:     decoded.Subject,
		Authorities: decoded.Authorities,
		Method:      MethodToken,
		IssuedAt:    decoded.IssuedAt,
		ExpiresAt:   decoded.ExpiresAt,
	}
}
