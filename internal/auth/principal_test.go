// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package auth

import (
	"context"
	"slices"
	"strings"
	"testing"
)

func TestPrincipalLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Principal
		want string
	}{
		{"email wins", Principal{Email: "a@b.com", Phones: []string{"+1"}}, "a@b.com"},
		{"first phone", Principal{Phones: []string{"+1", "+2"}}, "+1"},
		{"nothing", Principal{}, ""},
	}
	for _, tt := range tests {
		if got := tt.p.Login(); got != tt.want {
			t.Errorf("%s: Login() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeAuthorities(t *testing.T) {
	t.Parallel()

	got := NormalizeAuthorities([]string{" HR_READ", "", "EMPLOYEE", "HR_READ", "  "})
	if want := []string{"HR_READ", "EMPLOYEE"}; !slices.Equal(got, want) {
		t.Errorf("NormalizeAuthorities = %v, want %v", got, want)
	}
	if got := NormalizeAuthorities(nil); got == nil || len(got) != 0 {
		t.Errorf("NormalizeAuthorities(nil) = %#v, want empty slice", got)
	}
}

func TestParsePrincipalKind(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]PrincipalKind{"employee": PrincipalEmployee, " USER ": PrincipalUser} {
		got, ok := ParsePrincipalKind(in)
		if !ok || got != want {
			t.Errorf("ParsePrincipalKind(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParsePrincipalKind("admin"); ok {
		t.Error("expected admin to be rejected")
	}
}

func TestCredentialStringHidesPassword(t *testing.T) {
	t.Parallel()

	c := Credential{Login: "a@b.com", Password: "hunter2"}
	if strings.Contains(c.String(), "hunter2") {
		t.Errorf("String() leaks the password: %s", c.String())
	}
	if c.Kind() != CredentialPassword {
		t.Errorf("Kind() = %q", c.Kind())
	}
}

func TestSecurityContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if IsAuthenticated(ctx) {
		t.Fatal("empty context is authenticated")
	}

	a := &Authentication{Subject: "a@b.com", Authorities: []string{"Manager"}}
	ctx = WithAuthentication(ctx, a)
	got, ok := FromContext(ctx)
	if !ok || got != a {
		t.Fatalf("FromContext = %+v, %v", got, ok)
	}
	if !got.HasAuthority("Manager") || got.HasAuthority("ADMIN_FULL") {
		t.Error("HasAuthority mismatch")
	}

	cleared := ClearAuthentication(ctx)
	if IsAuthenticated(cleared) {
		t.Error("cleared context is still authenticated")
	}
	if (*Authentication)(nil).HasAuthority("Manager") {
		t.Error("nil authentication has an authority")
	}
}
