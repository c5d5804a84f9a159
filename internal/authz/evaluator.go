// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package authz

import (
	_ "embed"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/workshop/internal/logging"
)

//go:embed model.conf
var defaultModel string

// EvaluatorConfig configures an Evaluator.
type EvaluatorConfig struct {
	// PolicyPath is a CSV policy file (p, AUTHORITY, Entity, action). When
	// empty, Rules are loaded instead.
	PolicyPath string

	// Rules are used when PolicyPath is empty. Nil means DefaultRuleSet.
	Rules RuleSet

	// SecuredPrefix is the path prefix under which request entity types are
	// derived. Defaults to /internal.
	SecuredPrefix string

	CacheEnabled bool
	CacheTTL     time.Duration

	// CacheSize bounds the number of cached decisions. Defaults to 4096.
	CacheSize int
}

// Evaluator answers whether a set of authorities grants an action on an
// entity type. Authorities map directly to casbin subjects; there is no
// role inheritance and no wildcard matching.
type Evaluator struct {
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
	prefix   string
}

// NewEvaluator creates an evaluator.
func NewEvaluator(cfg EvaluatorConfig) (*Evaluator, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorization model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		RecordPolicyLoad(false)
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	if cfg.PolicyPath == "" {
		rules := cfg.Rules
		if rules == nil {
			rules = DefaultRuleSet()
		}
		if len(rules) > 0 {
			if _, err := enforcer.AddPolicies(rules.policies()); err != nil {
				RecordPolicyLoad(false)
				return nil, fmt.Errorf("failed to load policies: %w", err)
			}
		}
	}

	policies, err := enforcer.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to read policies: %w", err)
	}
	RecordPolicyLoad(true)
	PolicyRules.Set(float64(len(policies)))

	prefix := cfg.SecuredPrefix
	if prefix == "" {
		prefix = "/internal"
	}

	e := &Evaluator{
		enforcer: enforcer,
		prefix:   prefix,
	}
	if cfg.CacheEnabled {
		e.cache, err = newDecisionCache(cfg.CacheTTL, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
	}

	logging.Info().
		Int("policies", len(policies)).
		Str("source", policySource(cfg.PolicyPath)).
		Bool("cache", cfg.CacheEnabled).
		Msg("Permission evaluator initialized")

	return e, nil
}

func policySource(path string) string {
	if path == "" {
		return "rules"
	}
	return path
}

// HasPermission reports whether any of authorities may perform action on
// entityType. Empty authorities, unknown entity types and unknown actions
// are denied.
func (e *Evaluator) HasPermission(authorities []string, entityType, action string) bool {
	start := time.Now()

	perm, err := ParsePermissionType(action)
	if err != nil || entityType == "" || len(authorities) == 0 {
		RecordDecision(string(perm), false, time.Since(start), false)
		return false
	}

	for _, authority := range authorities {
		authority = strings.TrimSpace(authority)
		if authority == "" {
			continue
		}
		allowed, cached := e.decide(authority, entityType, perm)
		if allowed {
			RecordDecision(string(perm), true, time.Since(start), cached)
			return true
		}
	}

	RecordDecision(string(perm), false, time.Since(start), false)
	return false
}

// decide evaluates one authority, consulting the cache first. Enforcer
// errors deny.
func (e *Evaluator) decide(authority, entityType string, perm PermissionType) (allowed, cached bool) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(authority, entityType, string(perm)); ok {
			CacheHits.Inc()
			return allowed, true
		}
		CacheMisses.Inc()
	}

	allowed, err := e.enforcer.Enforce(authority, entityType, string(perm))
	if err != nil {
		EvaluationErrors.Inc()
		logging.Error().Err(err).
			Str("authority", authority).
			Str("entity", entityType).
			Msg("Permission evaluation failed")
		return false, false
	}

	if e.cache != nil {
		e.cache.set(authority, entityType, string(perm), allowed)
	}
	return allowed, false
}

// HasRequestPermission evaluates a web request: the action comes from the
// HTTP method and the entity type from the first path segment below the
// secured prefix. Requests outside the prefix, or with a method that maps
// to no permission, are denied.
func (e *Evaluator) HasRequestPermission(authorities []string, r *http.Request) bool {
	entity, action, ok := e.RequestTarget(r)
	if !ok {
		return false
	}
	return e.HasPermission(authorities, entity, string(action))
}

// RequestTarget returns the entity type and permission r asks for.
func (e *Evaluator) RequestTarget(r *http.Request) (string, PermissionType, bool) {
	if r == nil || r.URL == nil {
		return "", "", false
	}
	action, ok := PermissionForMethod(r.Method)
	if !ok {
		return "", "", false
	}
	entity, ok := EntityTypeFromPath(e.prefix, r.URL.Path)
	if !ok {
		return "", "", false
	}
	return entity, action, true
}

// Permissions returns, per entity type, the sorted actions any of
// authorities grants.
func (e *Evaluator) Permissions(authorities []string) (map[string][]PermissionType, error) {
	grants := make(map[string]map[PermissionType]struct{})
	for _, authority := range authorities {
		rules, err := e.enforcer.GetFilteredPolicy(0, authority)
		if err != nil {
			return nil, fmt.Errorf("failed to read policies for %s: %w", authority, err)
		}
		for _, rule := range rules {
			if len(rule) < 3 {
				continue
			}
			perm, err := ParsePermissionType(rule[2])
			if err != nil {
				continue
			}
			if grants[rule[1]] == nil {
				grants[rule[1]] = make(map[PermissionType]struct{})
			}
			grants[rule[1]][perm] = struct{}{}
		}
	}

	out := make(map[string][]PermissionType, len(grants))
	for entity, perms := range grants {
		list := make([]PermissionType, 0, len(perms))
		for p := range perms {
			list = append(list, p)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		out[entity] = list
	}
	return out, nil
}

// Reload re-reads the policy file and clears cached decisions. It is a
// no-op for rule-based evaluators.
func (e *Evaluator) Reload() error {
	if e.enforcer.GetAdapter() == nil {
		return nil
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		RecordPolicyLoad(false)
		return fmt.Errorf("failed to reload policies: %w", err)
	}
	RecordPolicyLoad(true)
	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// Close stops the decision cache.
func (e *Evaluator) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}
