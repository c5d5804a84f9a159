// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package authz

import (
	"fmt"
	"net/http"
	"strings"
)

// PermissionType is an access kind on an entity type. Its values mirror the
// HTTP methods that exercise it.
type PermissionType string

const (
	PermissionGet    PermissionType = "get"
	PermissionPost   PermissionType = "post"
	PermissionPut    PermissionType = "put"
	PermissionDelete PermissionType = "delete"
)

// AllPermissions lists every permission type.
var AllPermissions = []PermissionType{PermissionGet, PermissionPost, PermissionPut, PermissionDelete}

// ParsePermissionType converts a case-insensitive name to a PermissionType.
func ParsePermissionType(s string) (PermissionType, error) {
	switch p := PermissionType(strings.ToLower(strings.TrimSpace(s))); p {
	case PermissionGet, PermissionPost, PermissionPut, PermissionDelete:
		return p, nil
	default:
		return "", fmt.Errorf("unknown permission type %q", s)
	}
}

// PermissionForMethod maps an HTTP method to a permission type. HEAD is a
// read; PATCH modifies like PUT. Other methods have no permission type.
func PermissionForMethod(method string) (PermissionType, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return PermissionGet, true
	case http.MethodPost:
		return PermissionPost, true
	case http.MethodPut, http.MethodPatch:
		return PermissionPut, true
	case http.MethodDelete:
		return PermissionDelete, true
	default:
		return "", false
	}
}

// entityAliases maps path segments whose names do not derive
// mechanically from the entity type.
var entityAliases = map[string]string{
	"entity-types": "WorkshopEntityType",
}

// EntityTypeFromPath derives the entity type from the first path segment
// below prefix:
//
//	/internal/departments/7          -> Department
//	/internal/authority-permissions  -> AuthorityPermission
//	/internal/entity-types           -> WorkshopEntityType
//
// It returns false when path is not below prefix or has no segment there.
func EntityTypeFromPath(prefix, path string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/")
	rest, ok := strings.CutPrefix(path, prefix+"/")
	if !ok {
		return "", false
	}
	segment, _, _ := strings.Cut(rest, "/")
	segment = strings.ToLower(segment)
	if segment == "" {
		return "", false
	}

	if alias, ok := entityAliases[segment]; ok {
		return alias, true
	}
	return singular(pascalCase(segment)), true
}

func pascalCase(kebab string) string {
	var b strings.Builder
	for _, part := range strings.Split(kebab, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies"):
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "ss"):
		return name
	case strings.HasSuffix(name, "s"):
		return strings.TrimSuffix(name, "s")
	default:
		return name
	}
}
