// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

// Package config loads the service configuration.
//
// Sources are layered with Koanf v2, lowest priority first:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/workshop/config.yaml)
//  3. Environment variables mapped through envTransformFunc
//
// The merged result is validated with go-playground/validator struct tags
// and a handful of cross-field checks before it is returned.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
	Events   EventsConfig   `koanf:"events"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development production test"`
}

// SecurityConfig groups the authentication and authorization settings.
type SecurityConfig struct {
	Token  TokenConfig  `koanf:"token"`
	Cookie CookieConfig `koanf:"cookie"`
	Login  LoginConfig  `koanf:"login"`

	// SecuredPath prefixes every route that requires an authenticated
	// principal and is the root from which request permissions derive the
	// entity type (/internal/departments -> Department).
	SecuredPath string `koanf:"secured_path" validate:"required,startswith=/"`

	Authz       AuthzConfig     `koanf:"authz"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
	CORSOrigins []string        `koanf:"cors_origins"`
}

// TokenConfig configures the Token Codec.
type TokenConfig struct {
	// Secret is the HS256 signing key. It must be at least 32 bytes.
	Secret   string        `koanf:"secret" validate:"required,min=32"`
	Issuer   string        `koanf:"issuer" validate:"required"`
	Audience string        `koanf:"audience" validate:"required"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`

	// ReloadPrincipal makes the cookie filter reload the principal from the
	// credential store instead of trusting the token's scope claim.
	ReloadPrincipal bool `koanf:"reload_principal"`
}

// CookieConfig configures the authentication cookie.
type CookieConfig struct {
	Name     string        `koanf:"name" validate:"required"`
	Domain   string        `koanf:"domain"`
	Path     string        `koanf:"path" validate:"required,startswith=/"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`
	Secure   bool          `koanf:"secure"`
	SameSite string        `koanf:"same_site" validate:"oneof=lax strict none"`
}

// LoginConfig configures the external and internal login endpoints.
type LoginConfig struct {
	Path                 string `koanf:"path" validate:"required,startswith=/"`
	InternalPath         string `koanf:"internal_path" validate:"required,startswith=/"`
	EmailHeader          string `koanf:"email_header" validate:"required"`
	PasswordHeader       string `koanf:"password_header" validate:"required"`
	FailureURL           string `koanf:"failure_url" validate:"required"`
	InternalFailureURL   string `koanf:"internal_failure_url" validate:"required"`
	LoggedOutURL         string `koanf:"logged_out_url" validate:"required"`
	InternalLoggedOutURL string `koanf:"internal_logged_out_url" validate:"required"`

	// SuccessURL, when set, redirects after a successful login instead of
	// answering with the JSON principal body.
	SuccessURL string `koanf:"success_url"`

	// UseReferer redirects a failed external login back to the Referer
	// header when one is present.
	UseReferer bool `koanf:"use_referer"`
}

// AuthzConfig configures the permission evaluator.
type AuthzConfig struct {
	// PolicyPath optionally points at a CSV policy file replacing the
	// built-in authority rules.
	PolicyPath   string        `koanf:"policy_path"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	CacheSize    int           `koanf:"cache_size" validate:"gte=0"`
}

// RateLimitConfig limits login attempts per client IP.
type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"min=1,max=100000"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
	Disabled bool          `koanf:"disabled"`
}

// StoreConfig selects and tunes the credential store backend.
type StoreConfig struct {
	Backend  string        `koanf:"backend" validate:"oneof=memory badger"`
	Path     string        `koanf:"path"`
	SeedFile string        `koanf:"seed_file"`
	Breaker  BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the credential store.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32        `koanf:"max_requests" validate:"min=1"`
	Interval    time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32 `koanf:"failure_threshold" validate:"min=1"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// EventsConfig configures the in-process authentication event bus.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Topic   string `koanf:"topic" validate:"required_if=Enabled true"`
	Buffer  int64  `koanf:"buffer" validate:"gte=0"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
