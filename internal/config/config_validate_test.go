// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.Token.Secret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with secret",
			mutate: func(*Config) {},
		},
		{
			name:    "short secret",
			mutate:  func(c *Config) { c.Security.Token.Secret = "short" },
			wantErr: "security.token.secret failed 'min=32'",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "bad same site",
			mutate:  func(c *Config) { c.Security.Cookie.SameSite = "sometimes" },
			wantErr: "security.cookie.same_site",
		},
		{
			name:    "cookie path must be absolute",
			mutate:  func(c *Config) { c.Security.Cookie.Path = "internal" },
			wantErr: "security.cookie.path",
		},
		{
			name:    "zero token ttl",
			mutate:  func(c *Config) { c.Security.Token.TTL = 0 },
			wantErr: "security.token.ttl",
		},
		{
			name:    "same site none needs secure",
			mutate:  func(c *Config) { c.Security.Cookie.SameSite = "none" },
			wantErr: "AUTH_COOKIE_SECURE=true",
		},
		{
			name: "production requires secure cookie",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
			},
			wantErr: "AUTH_COOKIE_SECURE must be true",
		},
		{
			name: "internal login outside secured path",
			mutate: func(c *Config) {
				c.Security.Login.InternalPath = "/admin/login"
			},
			wantErr: "SECURED_PATH",
		},
		{
			name:    "badger without path",
			mutate:  func(c *Config) { c.Store.Backend = "badger"; c.Store.Path = "" },
			wantErr: "STORE_PATH",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "postgres" },
			wantErr: "store.backend",
		},
		{
			name:    "events enabled without topic",
			mutate:  func(c *Config) { c.Events.Topic = "" },
			wantErr: "events.topic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
