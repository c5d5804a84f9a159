// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/tomtom215/workshop/internal/events"
	"github.com/tomtom215/workshop/internal/logging"
)

// RequestMatcher selects the requests a filter acts on.
type RequestMatcher interface {
	Matches(r *http.Request) bool
}

// MatcherFunc adapts a function to RequestMatcher.
type MatcherFunc func(r *http.Request) bool

// Matches calls f.
func (f MatcherFunc) Matches(r *http.Request) bool { return f(r) }

// NewRequestMatcher matches an exact path and, when method is non-empty, an
// exact method.
func NewRequestMatcher(method, path string) RequestMatcher {
	return MatcherFunc(func(r *http.Request) bool {
		if method != "" && r.Method != method {
			return false
		}
		return r.URL.Path == path
	})
}

// PrefixMatcher matches prefix itself and every path below it.
// "/internal" matches "/internal" and "/internal/departments" but not
// "/internals".
func PrefixMatcher(prefix string) RequestMatcher {
	prefix = strings.TrimSuffix(prefix, "/")
	return MatcherFunc(func(r *http.Request) bool {
		p := r.URL.Path
		if prefix == "" {
			return true
		}
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	})
}

// FailureHandler writes the response for a failed login.
type FailureHandler interface {
	OnAuthenticationFailure(w http.ResponseWriter, r *http.Request, err error)
}

// FailureHandlerFunc adapts a function to FailureHandler.
type FailureHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// OnAuthenticationFailure calls f.
func (f FailureHandlerFunc) OnAuthenticationFailure(w http.ResponseWriter, r *http.Request, err error) {
	f(w, r, err)
}

// RedirectFailureHandler redirects to url with 302 Found.
func RedirectFailureHandler(url string) FailureHandler {
	return FailureHandlerFunc(func(w http.ResponseWriter, r *http.Request, _ error) {
		http.Redirect(w, r, url, http.StatusFound)
	})
}

// RefererFailureHandler redirects back to the Referer header when present
// and same-host, otherwise to fallback.
func RefererFailureHandler(fallback string) FailureHandler {
	return FailureHandlerFunc(func(w http.ResponseWriter, r *http.Request, _ error) {
		target := fallback
		if ref := r.Referer(); ref != "" && sameHost(r, ref) {
			target = ref
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
}

// sameHost reports whether ref is relative or points at the request host.
func sameHost(r *http.Request, ref string) bool {
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := r.URL.Parse(ref)
	if err != nil {
		return false
	}
	return u.Host != "" && strings.EqualFold(u.Host, r.Host)
}

// clientIP returns the remote address without port. Behind chi's RealIP
// middleware this is the forwarded client address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// publish sends e to sink, logging failures. A failed publish never fails
// the request.
func publish(ctx context.Context, sink events.Sink, e events.Event, r *http.Request) {
	if sink == nil {
		return
	}
	e.IP = clientIP(r)
	e.UserAgent = r.UserAgent()
	e.RequestID = logging.RequestIDFromContext(ctx)
	if err := sink.Publish(ctx, e); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", string(e.Type)).Msg("Failed to publish authentication event")
	}
}
