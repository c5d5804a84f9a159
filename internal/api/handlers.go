// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/workshop/internal/auth"
	"github.com/tomtom215/workshop/internal/authz"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PrincipalResponse is the body answering a successful login.
type PrincipalResponse struct {
	Subject     string   `json:"subject"`
	Authorities []string `json:"authorities"`
}

// PermissionQuery is the query of GET /internal/permissions when asking
// for a single decision.
type PermissionQuery struct {
	Entity string `validate:"required,alphanum,max=64"`
	Action string `validate:"required,max=16"`
}

// PermissionDecision answers a single permission query.
type PermissionDecision struct {
	Entity  string `json:"entity"`
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}

// EntityResponse acknowledges a permitted entity request.
type EntityResponse struct {
	Entity  string `json:"entity"`
	Action  string `json:"action"`
	ID      string `json:"id,omitempty"`
	Subject string `json:"subject"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// handleLoginSucceeded runs after the login filter installed an
// authentication. Requests that reach it unauthenticated, such as a GET
// without a cookie, get 401.
func (router *Router) handleLoginSucceeded(w http.ResponseWriter, r *http.Request) {
	a, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Authentication required", nil)
		return
	}

	if url := router.security.Login.SuccessURL; url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	authorities := a.Authorities
	if authorities == nil {
		authorities = []string{}
	}
	respondData(w, http.StatusOK, PrincipalResponse{
		Subject:     a.Subject,
		Authorities: authorities,
	})
}

func (router *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	a, _ := auth.FromContext(r.Context())
	respondData(w, http.StatusOK, a)
}

// handlePermissions answers a single decision when entity and action are
// given, and otherwise lists every permission the authorities grant.
func (router *Router) handlePermissions(w http.ResponseWriter, r *http.Request) {
	a, _ := auth.FromContext(r.Context())
	q := r.URL.Query()

	if q.Get("entity") == "" && q.Get("action") == "" {
		perms, err := router.deps.Evaluator.Permissions(a.Authorities)
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Permissions unavailable", err)
			return
		}
		respondData(w, http.StatusOK, perms)
		return
	}

	query := PermissionQuery{Entity: q.Get("entity"), Action: q.Get("action")}
	if err := validate.Struct(&query); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "entity and action are required", nil)
		return
	}
	action, err := authz.ParsePermissionType(query.Action)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "action must be one of get, post, put, delete", nil)
		return
	}

	respondData(w, http.StatusOK, PermissionDecision{
		Entity:  query.Entity,
		Action:  string(action),
		Allowed: router.deps.Evaluator.HasPermission(a.Authorities, query.Entity, string(action)),
	})
}

// handleEntity acknowledges a request the evaluator permitted. The entity
// CRUD surface lives in other services.
func (router *Router) handleEntity(w http.ResponseWriter, r *http.Request) {
	a, _ := auth.FromContext(r.Context())
	entity, action, _ := router.deps.Evaluator.RequestTarget(r)

	respondData(w, http.StatusOK, EntityResponse{
		Entity:  entity,
		Action:  string(action),
		ID:      chi.URLParam(r, "id"),
		Subject: a.Subject,
	})
}

func (router *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy"}
	if len(router.deps.HealthChecks) > 0 {
		resp.Components = make(map[string]string, len(router.deps.HealthChecks))
	}
	for _, hc := range router.deps.HealthChecks {
		if err := hc.Check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Components[hc.Name] = err.Error()
			continue
		}
		resp.Components[hc.Name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondData(w, status, resp)
}
