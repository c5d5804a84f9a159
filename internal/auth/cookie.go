// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"net/http"
	"strings"
	"time"
)

// DefaultCookieTTL is the cookie lifetime used when none is configured.
const DefaultCookieTTL = 3 * 24 * time.Hour

// CookieConfig configures the CookieManager.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	TTL      time.Duration
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite converts lax, strict or none to http.SameSite. Anything
// else yields http.SameSiteLaxMode.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// CookieManager creates and deletes the authentication cookie.
//
// Browsers never send Domain or Path back, so deletion uses the configured
// values, the same ones creation uses. For localhost or an empty domain the
// Domain attribute is left out of both.
type CookieManager struct {
	cfg CookieConfig
}

// NewCookieManager creates a cookie manager. Empty fields take defaults:
// path "/", TTL three days, SameSite lax.
func NewCookieManager(cfg CookieConfig) *CookieManager {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCookieTTL
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	cfg.Domain = cookieDomain(cfg.Domain)
	return &CookieManager{cfg: cfg}
}

// Name returns the configured cookie name.
func (m *CookieManager) Name() string {
	return m.cfg.Name
}

// TTL returns the default cookie lifetime.
func (m *CookieManager) TTL() time.Duration {
	return m.cfg.TTL
}

// AddCookie writes an HttpOnly cookie. ttl <= 0 uses the configured TTL.
func (m *CookieManager) AddCookie(w http.ResponseWriter, name, value string, ttl time.Duration) error {
	if w == nil {
		return NewError(KindInvalidArgument, "response writer is required", nil)
	}
	if name == "" {
		return NewError(KindInvalidArgument, "cookie name is required", nil)
	}
	if value == "" {
		return NewError(KindInvalidArgument, "cookie value is required", nil)
	}
	if ttl <= 0 {
		ttl = m.cfg.TTL
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   m.cfg.Domain,
		Path:     m.cfg.Path,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: m.cfg.SameSite,
	})
	CookieOperations.WithLabelValues("add").Inc()
	return nil
}

// DeleteCookie expires the cookie called name when r carries one. It is a
// no-op otherwise.
func (m *CookieManager) DeleteCookie(w http.ResponseWriter, r *http.Request, name string) error {
	if w == nil || r == nil {
		return NewError(KindInvalidArgument, "request and response writer are required", nil)
	}
	if name == "" {
		return NewError(KindInvalidArgument, "cookie name is required", nil)
	}
	if _, err := r.Cookie(name); err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Domain:   m.cfg.Domain,
		Path:     m.cfg.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: m.cfg.SameSite,
	})
	CookieOperations.WithLabelValues("delete").Inc()
	return nil
}

func cookieDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" || strings.EqualFold(domain, "localhost") {
		return ""
	}
	return domain
}
