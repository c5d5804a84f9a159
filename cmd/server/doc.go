// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

/*
Package main is the entry point for the Workshop authentication server.

The server logs workshop employees and external users in with credentials
sent as request headers, keeps the session in an HttpOnly cookie holding a
signed JWT, and checks entity permissions on every request under the
secured path.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("workshop")
	├── MessagingSupervisor ("messaging-layer")
	│   └── Event bus router (audit trail)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON/console output modes
 3. Credential stores: in-memory or BadgerDB, optional YAML seed, optional
    circuit breaker
 4. Authentication: employee and user providers, token codec, cookies
 5. Authorization: Casbin evaluator over authority rules
 6. Events: Watermill bus feeding the security audit log
 7. HTTP Server: Chi router with the login, logout and cookie filters

# Configuration

Settings come from built-in defaults, config.yaml (or CONFIG_PATH) and
environment variables, highest priority last. The token secret is required:

	export JWT_SECRET=$(openssl rand -base64 48)
	export STORE_SEED_FILE=./seed.yaml
	./workshop

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests within server.shutdown_timeout, then the event bus, the authz
evaluator and the credential store are closed.
*/
package main
