// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/workshop/internal/auth"
	"github.com/tomtom215/workshop/internal/authz"
	"github.com/tomtom215/workshop/internal/config"
	"github.com/tomtom215/workshop/internal/events"
	"github.com/tomtom215/workshop/internal/logging"
)

// Authenticator verifies credentials and reloads principals by subject.
// *auth.Manager implements it.
type Authenticator interface {
	auth.Authenticator
	auth.SubjectAuthenticator
}

// HealthCheck reports the health of one component. A nil error is healthy.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Dependencies are the collaborators the router wires together.
type Dependencies struct {
	Authenticator Authenticator
	Codec         *auth.TokenCodec
	Cookies       *auth.CookieManager
	Evaluator     *authz.Evaluator

	// Events receives login and logout events. Nil drops them.
	Events events.Sink

	// Security writes access-denied audit lines. Nil uses the global logger.
	Security *logging.SecurityLogger

	HealthChecks []HealthCheck
}

// Router owns the filters and serves the HTTP API.
type Router struct {
	security config.SecurityConfig
	deps     Dependencies

	chiMiddleware  *ChiMiddleware
	externalLogin  *auth.LoginFilter
	internalLogin  *auth.LoginFilter
	externalLogout *auth.LogoutFilter
	internalLogout *auth.LogoutFilter
	bearer         *auth.BearerFilter
	authz          *authz.Middleware
}

// NewRouter builds the filters from the security configuration.
func NewRouter(cfg *config.Config, deps Dependencies) (*Router, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Authenticator == nil || deps.Codec == nil || deps.Cookies == nil || deps.Evaluator == nil {
		return nil, fmt.Errorf("authenticator, token codec, cookie manager and evaluator are required")
	}

	sec := cfg.Security
	r := &Router{
		security: sec,
		deps:     deps,
		chiMiddleware: NewChiMiddleware(&ChiMiddlewareConfig{
			CORSAllowedOrigins: sec.CORSOrigins,
			CORSAllowedHeaders: []string{"Content-Type", sec.Login.EmailHeader, sec.Login.PasswordHeader},
			CORSMaxAge:         86400,
			RateLimitRequests:  sec.RateLimit.Requests,
			RateLimitWindow:    sec.RateLimit.Window,
			RateLimitDisabled:  sec.RateLimit.Disabled,
		}),
		authz: authz.NewMiddleware(deps.Evaluator, deps.Security),
	}

	var externalFailure auth.FailureHandler = auth.RedirectFailureHandler(sec.Login.FailureURL)
	if sec.Login.UseReferer {
		externalFailure = auth.RefererFailureHandler(sec.Login.FailureURL)
	}

	var err error
	r.externalLogin, err = r.newLoginFilter(sec.Login.Path, externalFailure)
	if err != nil {
		return nil, fmt.Errorf("external login filter: %w", err)
	}
	r.internalLogin, err = r.newLoginFilter(sec.Login.InternalPath, auth.RedirectFailureHandler(sec.Login.InternalFailureURL))
	if err != nil {
		return nil, fmt.Errorf("internal login filter: %w", err)
	}

	r.externalLogout, err = auth.NewLogoutFilter(auth.LogoutConfig{
		Matcher:     auth.LogoutMatcher(sec.Login.Path),
		CookieName:  sec.Cookie.Name,
		RedirectURL: sec.Login.LoggedOutURL,
		Events:      deps.Events,
	}, deps.Cookies)
	if err != nil {
		return nil, fmt.Errorf("external logout filter: %w", err)
	}
	r.internalLogout, err = auth.NewLogoutFilter(auth.LogoutConfig{
		Matcher:     auth.LogoutMatcher(sec.Login.InternalPath),
		CookieName:  sec.Cookie.Name,
		RedirectURL: sec.Login.InternalLoggedOutURL,
		Events:      deps.Events,
	}, deps.Cookies)
	if err != nil {
		return nil, fmt.Errorf("internal logout filter: %w", err)
	}

	r.bearer, err = auth.NewBearerFilter(auth.BearerFilterConfig{
		CookieName:      sec.Cookie.Name,
		ReloadPrincipal: sec.Token.ReloadPrincipal,
	}, deps.Codec, deps.Authenticator)
	if err != nil {
		return nil, fmt.Errorf("cookie token filter: %w", err)
	}

	return r, nil
}

func (router *Router) newLoginFilter(path string, failure auth.FailureHandler) (*auth.LoginFilter, error) {
	sec := router.security
	return auth.NewLoginFilter(auth.LoginFilterConfig{
		Matcher:        auth.NewRequestMatcher(http.MethodPost, path),
		LoginHeader:    sec.Login.EmailHeader,
		PasswordHeader: sec.Login.PasswordHeader,
		CookieName:     sec.Cookie.Name,
		CookieTTL:      sec.Cookie.TTL,
		TokenTTL:       sec.Token.TTL,
		FailureHandler: failure,
		Events:         router.deps.Events,
	}, router.deps.Authenticator, router.deps.Codec, router.deps.Cookies)
}

// Handler returns the chi router serving every route.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogging())
	r.Use(router.chiMiddleware.CORS())
	r.Use(APISecurityHeaders())
	r.Use(router.bearer.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})

	r.Get("/healthz", router.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Logout runs before login so ?logout=true never authenticates.
	login := r.With(router.chiMiddleware.RateLimitLogin())
	login.With(router.externalLogout.Middleware, router.externalLogin.Middleware).
		HandleFunc(router.security.Login.Path, router.handleLoginSucceeded)
	login.With(router.internalLogout.Middleware, router.internalLogin.Middleware).
		HandleFunc(router.security.Login.InternalPath, router.handleLoginSucceeded)

	secured := router.security.SecuredPath
	r.Group(func(r chi.Router) {
		r.Use(router.authz.RequireAuthenticated)

		r.Get(secured+"/me", router.handleMe)
		r.Get(secured+"/permissions", router.handlePermissions)

		r.With(router.authz.RequireRequestPermission()).HandleFunc(secured+"/{entity}", router.handleEntity)
		r.With(router.authz.RequireRequestPermission()).HandleFunc(secured+"/{entity}/{id}", router.handleEntity)
	})

	return r
}
