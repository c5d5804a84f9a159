// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

/*
Package auth implements cookie-carried JWT authentication for the workshop
service.

# Components

  - TokenCodec: HS256 tokens with claims iss, aud, sub, iat, exp, scope, jti
  - CredentialStore: principal lookup by email, then phone (MemoryStore,
    BadgerStore, BreakerStore)
  - PasswordProvider: bcrypt verification for employees and users
  - Manager: tries providers in priority order, first success wins
  - CookieManager: HttpOnly cookie creation and symmetric deletion
  - LoginFilter, BearerFilter, LogoutFilter: net/http middleware

# Request Flow

A login request carries the login and password in the email and password
headers. The LoginFilter hands them to the Manager, encodes a token for the
resulting Authentication, stores it in the cookie and lets the request
continue with the Authentication in its context. Later requests present
the cookie; the BearerFilter decodes it and installs the Authentication
before the handler runs. A missing or bad cookie leaves the request
unauthenticated.

	manager := auth.NewManager(
		auth.NewEmployeeProvider(employees, auth.BcryptHasher{}),
		auth.NewUserProvider(users, auth.BcryptHasher{}),
	)
	login, _ := auth.NewLoginFilter(auth.LoginFilterConfig{
		Matcher: auth.NewRequestMatcher(http.MethodPost, "/login"),
	}, manager, codec, cookies)

# Errors

Every failure is an *Error carrying a Kind, an HTTP status and a message
key. Use errors.Is with the Err* sentinels; ErrTokenExpired also matches
ErrTokenInvalid. Authentication failures never escape a filter.

# Scope Claim

Authorities travel in the scope claim rendered as "[A, B, C]". A name
holding a comma, or opening with '[' or closing with ']', is refused by
Encode and by the credential stores (see ValidateAuthorities). The
rendering is cut to MaxScopeBytes, measured after JSON escaping, by
dropping whole names from the tail, and a token of MaxTokenBytes or more
is refused.
*/
package auth
