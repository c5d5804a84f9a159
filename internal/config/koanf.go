// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/workshop/config.yaml",
	"/etc/workshop/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. The token secret
// has no default and must come from the file or JWT_SECRET.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			Token: TokenConfig{
				Secret:          "",
				Issuer:          "workshop",
				Audience:        "workshop",
				TTL:             72 * time.Hour,
				ReloadPrincipal: false,
			},
			Cookie: CookieConfig{
				Name:     "workshopJwt",
				Domain:   "localhost",
				Path:     "/",
				TTL:      72 * time.Hour,
				Secure:   false,
				SameSite: "lax",
			},
			Login: LoginConfig{
				Path:                 "/login",
				InternalPath:         "/internal/login",
				EmailHeader:          "email",
				PasswordHeader:       "password",
				FailureURL:           "/login?login=failure",
				InternalFailureURL:   "/internal/login?login=failure",
				LoggedOutURL:         "/login?logged_out=true",
				InternalLoggedOutURL: "/internal/login?logged_out=true",
				SuccessURL:           "",
				UseReferer:           true,
			},
			SecuredPath: "/internal",
			Authz: AuthzConfig{
				PolicyPath:   "",
				CacheEnabled: true,
				CacheTTL:     5 * time.Minute,
			},
			RateLimit: RateLimitConfig{
				Requests: 20,
				Window:   time.Minute,
				Disabled: false,
			},
			CORSOrigins: []string{},
		},
		Store: StoreConfig{
			Backend:  "memory",
			Path:     "/data/principals",
			SeedFile: "",
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Events: EventsConfig{
			Enabled: true,
			Topic:   "auth.events",
			Buffer:  256,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any mapped setting
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// JWT_SECRET -> security.token.secret, AUTH_COOKIE_NAME -> security.cookie.name
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set through env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Token
	"jwt_secret":           "security.token.secret",
	"jwt_issuer":           "security.token.issuer",
	"jwt_audience":         "security.token.audience",
	"jwt_ttl":              "security.token.ttl",
	"jwt_reload_principal": "security.token.reload_principal",

	// Cookie
	"auth_cookie_name":      "security.cookie.name",
	"auth_cookie_domain":    "security.cookie.domain",
	"auth_cookie_path":      "security.cookie.path",
	"auth_cookie_ttl":       "security.cookie.ttl",
	"auth_cookie_secure":    "security.cookie.secure",
	"auth_cookie_same_site": "security.cookie.same_site",

	// Login
	"login_path":              "security.login.path",
	"internal_login_path":     "security.login.internal_path",
	"login_email_header":      "security.login.email_header",
	"login_password_header":   "security.login.password_header",
	"login_failure_url":       "security.login.failure_url",
	"internal_failure_url":    "security.login.internal_failure_url",
	"logged_out_url":          "security.login.logged_out_url",
	"internal_logged_out_url": "security.login.internal_logged_out_url",
	"login_success_url":       "security.login.success_url",
	"login_use_referer":       "security.login.use_referer",
	"secured_path":            "security.secured_path",

	// Authorization
	"authz_policy_path":   "security.authz.policy_path",
	"authz_cache_enabled": "security.authz.cache_enabled",
	"authz_cache_ttl":     "security.authz.cache_ttl",
	"authz_cache_size":    "security.authz.cache_size",

	// Rate limiting and CORS
	"rate_limit_requests": "security.rate_limit.requests",
	"rate_limit_window":   "security.rate_limit.window",
	"disable_rate_limit":  "security.rate_limit.disabled",
	"cors_origins":        "security.cors_origins",

	// Credential store
	"store_backend":                   "store.backend",
	"store_path":                      "store.path",
	"store_seed_file":                 "store.seed_file",
	"store_breaker_enabled":           "store.breaker.enabled",
	"store_breaker_max_requests":      "store.breaker.max_requests",
	"store_breaker_interval":          "store.breaker.interval",
	"store_breaker_timeout":           "store.breaker.timeout",
	"store_breaker_failure_threshold": "store.breaker.failure_threshold",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Events
	"events_enabled": "events.enabled",
	"events_topic":   "events.topic",
	"events_buffer":  "events.buffer",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
