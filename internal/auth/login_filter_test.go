// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/workshop/internal/events"
)

// eventRecorder is an events.Sink collecting everything published.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type loginFixture struct {
	filter   http.Handler
	codec    *TokenCodec
	events   *eventRecorder
	reached  bool
	seen     *Authentication
	failures []error
}

func newLoginFixture(t *testing.T, authn Authenticator) *loginFixture {
	t.Helper()

	f := &loginFixture{
		codec:  newTestCodec(t, time.Hour),
		events: &eventRecorder{},
	}
	if authn == nil {
		authn = NewManager(NewEmployeeProvider(newTestStore(t, managerPrincipal(t)), testHasher))
	}

	login, err := NewLoginFilter(LoginFilterConfig{
		Matcher: NewRequestMatcher(http.MethodPost, "/login"),
		FailureHandler: FailureHandlerFunc(func(w http.ResponseWriter, r *http.Request, err error) {
			f.failures = append(f.failures, err)
			if IsAuthenticated(r.Context()) {
				t.Error("failure handler sees an authenticated context")
			}
			RedirectFailureHandler("/login?login=failure").OnAuthenticationFailure(w, r, err)
		}),
		Events: f.events,
	}, authn, f.codec, NewCookieManager(CookieConfig{Name: "AUTH"}))
	if err != nil {
		t.Fatalf("NewLoginFilter: %v", err)
	}

	f.filter = login.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.reached = true
		f.seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return f
}

func loginRequest(headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestLoginFilter_Success(t *testing.T) {
	t.Parallel()

	f := newLoginFixture(t, nil)
	rec := httptest.NewRecorder()
	f.filter.ServeHTTP(rec, loginRequest(map[string]string{"email": "a@b.com", "password": "correct"}))

	if rec.Code != http.StatusOK || !f.reached {
		t.Fatalf("status = %d, reached = %v; want the request forwarded", rec.Code, f.reached)
	}
	if f.seen == nil || f.seen.Subject != "a@b.com" || !slices.Equal(f.seen.Authorities, []string{"Manager"}) {
		t.Fatalf("context authentication = %+v", f.seen)
	}
	if f.seen.ExpiresAt.IsZero() {
		t.Error("expected expiry on the installed authentication")
	}

	cookie := responseCookie(t, rec, "AUTH")
	if cookie == nil {
		t.Fatal("no AUTH cookie issued")
	}
	if !cookie.HttpOnly {
		t.Error("cookie is not HttpOnly")
	}
	decoded, err := f.codec.Decode(cookie.Value)
	if err != nil {
		t.Fatalf("Decode(cookie): %v", err)
	}
	if decoded.Subject != "a@b.com" || !slices.Equal(decoded.Authorities, []string{"Manager"}) {
		t.Errorf("cookie token = %+v", decoded)
	}

	if got := f.events.types(); !slices.Equal(got, []events.Type{events.TypeLoginSucceeded}) {
		t.Errorf("events = %v", got)
	}
}

func TestLoginFilter_WrongPassword(t *testing.T) {
	t.Parallel()

	f := newLoginFixture(t, nil)
	rec := httptest.NewRecorder()
	f.filter.ServeHTTP(rec, loginRequest(map[string]string{"email": "a@b.com", "password": "wrong"}))

	if f.reached {
		t.Fatal("failed login reached the next handler")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login?login=failure" {
		t.Errorf("status = %d, Location = %q", rec.Code, rec.Header().Get("Location"))
	}
	if responseCookie(t, rec, "AUTH") != nil {
		t.Error("cookie issued for a failed login")
	}
	if len(f.failures) != 1 || !errors.Is(f.failures[0], ErrAuthenticationRejected) {
		t.Errorf("failures = %v", f.failures)
	}

	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	if len(f.events.events) != 1 || f.events.events[0].Type != events.TypeLoginFailed || f.events.events[0].Login != "a@b.com" {
		t.Errorf("events = %+v", f.events.events)
	}
}

func TestLoginFilter_MissingCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no headers", nil},
		{"no password header", map[string]string{"email": "a@b.com"}},
		{"no email header", map[string]string{"password": "correct"}},
		{"both empty", map[string]string{"email": "", "password": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newLoginFixture(t, nil)
			rec := httptest.NewRecorder()
			f.filter.ServeHTTP(rec, loginRequest(tt.headers))

			if f.reached {
				t.Fatal("request forwarded without credentials")
			}
			if len(f.failures) != 1 || !errors.Is(f.failures[0], ErrBadCredentials) {
				t.Errorf("failures = %v, want ErrBadCredentials", f.failures)
			}
		})
	}
}

func TestLoginFilter_UnmatchedRequestPassesThrough(t *testing.T) {
	t.Parallel()

	f := newLoginFixture(t, nil)
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/login", nil),
		httptest.NewRequest(http.MethodPost, "/internal/login", nil),
	} {
		f.reached = false
		rec := httptest.NewRecorder()
		f.filter.ServeHTTP(rec, req)
		if !f.reached || f.seen != nil {
			t.Errorf("%s %s: reached = %v, seen = %+v", req.Method, req.URL.Path, f.reached, f.seen)
		}
	}
	if len(f.events.types()) != 0 {
		t.Error("unmatched requests published events")
	}
}

func TestLoginFilter_UnexpectedFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(ctx context.Context, cred Credential) (*Authentication, error)
	}{
		{"panic", func(context.Context, Credential) (*Authentication, error) { panic("boom") }},
		{"foreign error", func(context.Context, Credential) (*Authentication, error) { return nil, errors.New("db gone") }},
		{"unencodable principal", func(context.Context, Credential) (*Authentication, error) {
			return &Authentication{Subject: ""}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newLoginFixture(t, authenticatorFunc(tt.fn))
			rec := httptest.NewRecorder()
			f.filter.ServeHTTP(rec, loginRequest(map[string]string{"email": "a@b.com", "password": "correct"}))

			if f.reached {
				t.Fatal("request forwarded after an unexpected failure")
			}
			if len(f.failures) != 1 {
				t.Fatalf("failures = %v", f.failures)
			}
			if kind := KindOf(f.failures[0]); kind != KindServiceFailure && kind != KindInvalidPrincipal {
				t.Errorf("kind = %v", kind)
			}
			if responseCookie(t, rec, "AUTH") != nil {
				t.Error("cookie issued after a failure")
			}
		})
	}
}

func TestNewLoginFilter_Validation(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Hour)
	cookies := NewCookieManager(CookieConfig{Name: "AUTH"})
	manager := NewManager()

	if _, err := NewLoginFilter(LoginFilterConfig{}, manager, codec, cookies); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing matcher: err = %v", err)
	}
	matcher := NewRequestMatcher(http.MethodPost, "/login")
	if _, err := NewLoginFilter(LoginFilterConfig{Matcher: matcher}, nil, codec, cookies); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing authenticator: err = %v", err)
	}
	if _, err := NewLoginFilter(LoginFilterConfig{Matcher: matcher}, manager, codec, NewCookieManager(CookieConfig{})); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing cookie name: err = %v", err)
	}
}

type authenticatorFunc func(ctx context.Context, cred Credential) (*Authentication, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, cred Credential) (*Authentication, error) {
	return f(ctx, cred)
}

func TestRequestMatchers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		matcher RequestMatcher
		method  string
		target  string
		want    bool
	}{
		{"exact", NewRequestMatcher(http.MethodPost, "/login"), http.MethodPost, "/login", true},
		{"exact ignores query", NewRequestMatcher(http.MethodPost, "/login"), http.MethodPost, "/login?x=1", true},
		{"exact wrong method", NewRequestMatcher(http.MethodPost, "/login"), http.MethodGet, "/login", false},
		{"exact any method", NewRequestMatcher("", "/login"), http.MethodDelete, "/login", true},
		{"exact sub path", NewRequestMatcher(http.MethodPost, "/login"), http.MethodPost, "/login/x", false},
		{"prefix root", PrefixMatcher("/internal"), http.MethodGet, "/internal", true},
		{"prefix child", PrefixMatcher("/internal/"), http.MethodGet, "/internal/departments/1", true},
		{"prefix sibling", PrefixMatcher("/internal"), http.MethodGet, "/internals", false},
		{"logout", LogoutMatcher("/login"), http.MethodGet, "/login?logout=true", true},
		{"logout without flag", LogoutMatcher("/login"), http.MethodGet, "/login", false},
	}
	for _, tt := range tests {
		if got := tt.matcher.Matches(httptest.NewRequest(tt.method, tt.target, nil)); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRefererFailureHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{"no referer", "", "/login?login=failure"},
		{"relative referer", "/shop/checkout", "/shop/checkout"},
		{"same host", "http://example.com/shop", "http://example.com/shop"},
		{"foreign host", "https://evil.test/phish", "/login?login=failure"},
		{"scheme relative", "//evil.test/phish", "/login?login=failure"},
	}
	handler := RefererFailureHandler("/login?login=failure")
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		if tt.referer != "" {
			req.Header.Set("Referer", tt.referer)
		}
		rec := httptest.NewRecorder()
		handler.OnAuthenticationFailure(rec, req, ErrBadCredentials)
		if got := rec.Header().Get("Location"); got != tt.want {
			t.Errorf("%s: Location = %q, want %q", tt.name, got, tt.want)
		}
	}
}
