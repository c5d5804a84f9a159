// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"time"

	"github.com/tomtom215/workshop/internal/events"
	"github.com/tomtom215/workshop/internal/logging"
)

// Default header names carrying the login credential.
const (
	DefaultLoginHeader    = "email"
	DefaultPasswordHeader = "password"
)

// Authenticator verifies a credential. *Manager implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, cred Credential) (*Authentication, error)
}

// LoginFilterConfig configures a LoginFilter.
type LoginFilterConfig struct {
	// Matcher selects login requests. Required.
	Matcher RequestMatcher

	LoginHeader    string
	PasswordHeader string

	CookieName string
	CookieTTL  time.Duration
	TokenTTL   time.Duration

	// FailureHandler answers failed logins. Defaults to a redirect to
	// /login?login=failure.
	FailureHandler FailureHandler

	// Events receives login.succeeded and login.failed; the audit trail is
	// written by its consumers. May be nil.
	Events events.Sink
}

// LoginFilter authenticates credentials from request headers and, on
// success, issues the token cookie.
//
// For a matching request the filter moves through:
//
//	awaiting credentials -> authenticating -> success | failure
//
// On success the authentication is installed in the request context, the
// cookie is written and next runs. On failure the failure handler writes
// the response and next does not run. Panics and errors that are not
// *Error become KindServiceFailure.
type LoginFilter struct {
	cfg     LoginFilterConfig
	authn   Authenticator
	codec   *TokenCodec
	cookies *CookieManager
}

// NewLoginFilter creates a login filter.
func NewLoginFilter(cfg LoginFilterConfig, authn Authenticator, codec *TokenCodec, cookies *CookieManager) (*LoginFilter, error) {
	if cfg.Matcher == nil {
		return nil, NewError(KindInvalidArgument, "login matcher is required", nil)
	}
	if authn == nil || codec == nil || cookies == nil {
		return nil, NewError(KindInvalidArgument, "authenticator, token codec and cookie manager are required", nil)
	}
	if cfg.LoginHeader == "" {
		cfg.LoginHeader = DefaultLoginHeader
	}
	if cfg.PasswordHeader == "" {
		cfg.PasswordHeader = DefaultPasswordHeader
	}
	if cfg.CookieName == "" {
		cfg.CookieName = cookies.Name()
	}
	if cfg.CookieName == "" {
		return nil, NewError(KindInvalidArgument, "cookie name is required", nil)
	}
	if cfg.FailureHandler == nil {
		cfg.FailureHandler = RedirectFailureHandler("/login?login=failure")
	}

	return &LoginFilter{
		cfg:     cfg,
		authn:   authn,
		codec:   codec,
		cookies: cookies,
	}, nil
}

// Middleware wraps next. Requests the matcher rejects pass straight through.
func (f *LoginFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.cfg.Matcher.Matches(r) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		login := r.Header.Get(f.cfg.LoginHeader)

		a, err := f.attempt(ctx, w, r)
		if err != nil {
			f.fail(w, r.WithContext(ClearAuthentication(ctx)), login, err)
			return
		}

		logging.Ctx(ctx).Debug().
			Str("subject", logging.SanitizeLogin(a.Subject)).
			Str("provider", a.Provider).
			Msg("Login succeeded")
		e := events.New(events.TypeLoginSucceeded)
		e.Subject = a.Subject
		e.Provider = a.Provider
		publish(ctx, f.cfg.Events, e, r)

		next.ServeHTTP(w, r.WithContext(WithAuthentication(ctx, a)))
	})
}

// attempt runs extraction, authentication, encoding and cookie writing.
// Nothing reaches w unless every earlier step succeeded.
func (f *LoginFilter) attempt(ctx context.Context, w http.ResponseWriter, r *http.Request) (a *Authentication, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Ctx(ctx).Error().Interface("panic", rec).Msg("Login attempt panicked")
			a, err = nil, NewError(KindServiceFailure, "login failed unexpectedly", fmt.Errorf("panic: %v", rec))
		}
	}()

	cred, err := f.extract(r)
	if err != nil {
		return nil, err
	}

	a, err = f.authn.Authenticate(ctx, cred)
	if err != nil {
		return nil, asAuthError(err)
	}

	ttl := f.cfg.TokenTTL
	if ttl <= 0 {
		ttl = f.codec.TTL()
	}
	token, err := f.codec.Encode(a.Subject, "", "", a.Authorities, ttl)
	if err != nil {
		return nil, asAuthError(err)
	}

	now := time.Now()
	a.IssuedAt = now
	a.ExpiresAt = now.Add(ttl)

	if err := f.cookies.AddCookie(w, f.cfg.CookieName, token, f.cfg.CookieTTL); err != nil {
		return nil, asAuthError(err)
	}
	return a, nil
}

// extract reads the credential headers. A missing header, or both headers
// empty, is a bad-credentials failure.
func (f *LoginFilter) extract(r *http.Request) (Credential, error) {
	login, hasLogin := headerValue(r.Header, f.cfg.LoginHeader)
	password, hasPassword := headerValue(r.Header, f.cfg.PasswordHeader)
	if !hasLogin || !hasPassword {
		return Credential{}, NewError(KindBadCredentials, "credential headers missing", nil)
	}
	if login == "" && password == "" {
		return Credential{}, NewError(KindBadCredentials, "credential headers empty", nil)
	}
	return Credential{Login: login, Password: password}, nil
}

func (f *LoginFilter) fail(w http.ResponseWriter, r *http.Request, login string, err error) {
	kind := KindOf(err)
	reason := kind.String()

	e := events.New(events.TypeLoginFailed)
	e.Login = login
	e.Reason = reason
	publish(r.Context(), f.cfg.Events, e, r)

	if kind == KindServiceFailure {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Login failed with a service error")
	}
	f.cfg.FailureHandler.OnAuthenticationFailure(w, r, err)
}

func headerValue(h http.Header, name string) (string, bool) {
	values, ok := h[textproto.CanonicalMIMEHeaderKey(name)]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// asAuthError passes *Error values through and wraps anything else as a
// service failure.
func asAuthError(err error) error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return err
	}
	return NewError(KindServiceFailure, "authentication service failure", err)
}
