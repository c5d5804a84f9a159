// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, expected string
	}{
		{"", ""},
		{"short", "***"},
		{"eyJhbGciOiJIUzI1NiJ9.payload.sig", "eyJh....sig"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.input); got != tt.expected {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, expected string
	}{
		{"", ""},
		{"john.doe@example.com", "jo***@example.com"},
		{"jo@example.com", "***@example.com"},
		{"+380501234567", "+3***67"},
		{"123", "***"},
	}
	for _, tt := range tests {
		if got := SanitizeLogin(tt.input); got != tt.expected {
			t.Errorf("SanitizeLogin(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError("wrong password for user"); got != "authentication error" {
		t.Errorf("expected generic message, got %q", got)
	}
	if got := SanitizeError("principal disabled"); got != "principal disabled" {
		t.Errorf("expected message unchanged, got %q", got)
	}
	long := strings.Repeat("x", 300)
	if got := SanitizeError(long); len(got) != 203 {
		t.Errorf("expected truncated length 203, got %d", len(got))
	}
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	if got := SanitizeValue("token", "abcdefghijklmnop"); got != "abcd...mnop" {
		t.Errorf("token not masked: %q", got)
	}
	if got := SanitizeValue("who", "someone@example.com"); got != "so***@example.com" {
		t.Errorf("email not masked: %q", got)
	}
	if got := SanitizeValue("path", "/internal/departments"); got != "/internal/departments" {
		t.Errorf("plain value changed: %q", got)
	}
}

func TestSecurityLogger_LogLoginSuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))
	l.LogLoginSuccess("alice@example.com", "employees", "10.0.0.1", "curl/8.0")

	out := buf.String()
	for _, want := range []string{
		`"component":"auth"`,
		`"event":"login_success"`,
		`"status":"success"`,
		`"subject":"al***@example.com"`,
		`"provider":"employees"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestSecurityLogger_LogLoginFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))
	l.LogLoginFailure("bob@example.com", "10.0.0.2", "", "bad credentials")

	out := buf.String()
	if !strings.Contains(out, `"status":"failed"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected failed warn line, got %s", out)
	}
	if !strings.Contains(out, `"reason":"bad credentials"`) {
		t.Errorf("expected reason, got %s", out)
	}
	if strings.Contains(out, "bob@example.com") {
		t.Errorf("login leaked unmasked: %s", out)
	}
}

func TestSecurityLogger_LogAccessDenied(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewSecurityLoggerWithLogger(NewTestLogger(&buf))
	l.LogAccessDenied("carol@example.com", "Department", "delete", "/internal/departments/3")

	out := buf.String()
	for _, want := range []string{`"event":"access_denied"`, `"entity":"Department"`, `"permission":"delete"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
