// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package authz

import (
	"net/http"

	"github.com/tomtom215/workshop/internal/auth"
	"github.com/tomtom215/workshop/internal/logging"
)

// Middleware guards handlers with the authentication found in the request
// context and the Evaluator's decisions.
type Middleware struct {
	evaluator *Evaluator
	security  *logging.SecurityLogger
}

// NewMiddleware creates authorization middleware. A nil security logger
// uses the global one.
func NewMiddleware(evaluator *Evaluator, security *logging.SecurityLogger) *Middleware {
	if security == nil {
		security = logging.NewSecurityLogger()
	}
	return &Middleware{
		evaluator: evaluator,
		security:  security,
	}
}

// RequireAuthenticated answers 401 when the request carries no
// authentication.
func (m *Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission answers 403 unless the authentication grants action on
// entityType.
func (m *Middleware) RequirePermission(entityType string, action PermissionType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := auth.FromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
				return
			}
			if !m.evaluator.HasPermission(a.Authorities, entityType, string(action)) {
				m.deny(w, r, a.Subject, entityType, string(action))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRequestPermission answers 403 unless the authentication grants the
// permission derived from the request method and path.
func (m *Middleware) RequireRequestPermission() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := auth.FromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
				return
			}
			if !m.evaluator.HasRequestPermission(a.Authorities, r) {
				entity, action, _ := m.evaluator.RequestTarget(r)
				m.deny(w, r, a.Subject, entity, string(action))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) deny(w http.ResponseWriter, r *http.Request, subject, entity, action string) {
	m.security.LogAccessDenied(subject, entity, action, r.URL.Path)
	logging.Ctx(r.Context()).Debug().
		Str("subject", logging.SanitizeLogin(subject)).
		Str("entity", entity).
		Str("action", action).
		Msg("Permission denied")
	http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
}
