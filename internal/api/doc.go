// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

/*
Package api wires the authentication filters and the permission evaluator
into a chi router.

Routes:

	POST /login                       external login (credential headers)
	POST /internal/login              internal login
	ANY  /login?logout=true           logout, redirect to the logged-out page
	ANY  /internal/login?logout=true  internal logout
	GET  /internal/me                 current authentication
	GET  /internal/permissions        evaluator decision or granted permissions
	ANY  /internal/{entity}[/{id}]    permission-checked placeholder
	GET  /healthz                     component health
	GET  /metrics                     Prometheus metrics

Middleware order for every request:

	RequestID -> RealIP -> Recoverer -> request log/metrics -> CORS -> cookie token

The cookie token filter never rejects a request. Routes under the secured
prefix answer 401 when it left the request unauthenticated and 403 when
the evaluator denies the derived permission.

Successful responses use the envelope:

	{
	  "status": "success",
	  "data": {"subject": "a@b.com", "authorities": ["HR_READ"]},
	  "metadata": {"timestamp": "2026-01-01T12:00:00Z"}
	}
*/
package api
