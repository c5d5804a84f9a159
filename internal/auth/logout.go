// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"net/http"

	"github.com/tomtom215/workshop/internal/events"
	"github.com/tomtom215/workshop/internal/logging"
)

// LogoutMatcher matches any method on path with ?logout=true.
func LogoutMatcher(path string) RequestMatcher {
	return MatcherFunc(func(r *http.Request) bool {
		return r.URL.Path == path && r.URL.Query().Get("logout") == "true"
	})
}

// LogoutConfig configures a LogoutFilter.
type LogoutConfig struct {
	Matcher     RequestMatcher
	CookieName  string
	RedirectURL string
	Events      events.Sink
}

// LogoutFilter deletes the authentication cookie, clears the request's
// authentication and redirects to the logged-out page.
type LogoutFilter struct {
	cfg     LogoutConfig
	cookies *CookieManager
}

// NewLogoutFilter creates a logout filter. The redirect defaults to
// /login?logged_out=true.
func NewLogoutFilter(cfg LogoutConfig, cookies *CookieManager) (*LogoutFilter, error) {
	if cfg.Matcher == nil {
		return nil, NewError(KindInvalidArgument, "logout matcher is required", nil)
	}
	if cookies == nil {
		return nil, NewError(KindInvalidArgument, "cookie manager is required", nil)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = cookies.Name()
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "/login?logged_out=true"
	}
	return &LogoutFilter{cfg: cfg, cookies: cookies}, nil
}

// Middleware wraps next. Matching requests never reach next.
func (f *LogoutFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.cfg.Matcher.Matches(r) {
			next.ServeHTTP(w, r)
			return
		}
		f.ServeHTTP(w, r)
	})
}

// ServeHTTP performs the logout unconditionally.
func (f *LogoutFilter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e := events.New(events.TypeLogout)
	if a, ok := FromContext(ctx); ok {
		e.Subject = a.Subject
	}

	if err := f.cookies.DeleteCookie(w, r, f.cfg.CookieName); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to delete authentication cookie")
	}

	r = r.WithContext(ClearAuthentication(ctx))
	publish(r.Context(), f.cfg.Events, e, r)

	http.Redirect(w, r, f.cfg.RedirectURL, http.StatusFound)
}
