// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package authz

import "fmt"

// Level is a coarse access grade expanding into permission types.
type Level string

const (
	LevelRead  Level = "read"
	LevelWrite Level = "write"
	LevelFull  Level = "full"
)

// Permissions returns the permission types a level grants.
func (l Level) Permissions() []PermissionType {
	switch l {
	case LevelRead:
		return []PermissionType{PermissionGet}
	case LevelWrite:
		return []PermissionType{PermissionGet, PermissionPut}
	case LevelFull:
		return []PermissionType{PermissionGet, PermissionPut, PermissionPost, PermissionDelete}
	default:
		return nil
	}
}

// Entity types of the workshop domain.
const (
	EntityDepartment          = "Department"
	EntityPosition            = "Position"
	EntityEmployee            = "Employee"
	EntityOrder               = "Order"
	EntityTask                = "Task"
	EntityClassifier          = "Classifier"
	EntityUser                = "User"
	EntityPhone               = "Phone"
	EntityInternalAuthority   = "InternalAuthority"
	EntityExternalAuthority   = "ExternalAuthority"
	EntityAuthorityPermission = "AuthorityPermission"
	EntityWorkshopEntityType  = "WorkshopEntityType"
)

// Rule permits one authority one action on one entity type.
type Rule struct {
	Authority  string
	EntityType string
	Action     PermissionType
}

// AuthorityGrant gives an authority a level on a set of entity types.
type AuthorityGrant struct {
	Authority   string
	Level       Level
	EntityTypes []string
}

// RuleSet is a deduplicated list of rules.
type RuleSet []Rule

// NewRuleSet expands grants into rules. Unknown levels are an error.
func NewRuleSet(grants ...AuthorityGrant) (RuleSet, error) {
	seen := make(map[Rule]struct{})
	var rules RuleSet
	for _, g := range grants {
		perms := g.Level.Permissions()
		if perms == nil {
			return nil, fmt.Errorf("authority %s: unknown level %q", g.Authority, g.Level)
		}
		for _, entity := range g.EntityTypes {
			for _, p := range perms {
				r := Rule{Authority: g.Authority, EntityType: entity, Action: p}
				if _, dup := seen[r]; dup {
					continue
				}
				seen[r] = struct{}{}
				rules = append(rules, r)
			}
		}
	}
	return rules, nil
}

// EntityTypes returns the distinct entity types named by the rules.
func (rs RuleSet) EntityTypes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rs {
		if _, ok := seen[r.EntityType]; ok {
			continue
		}
		seen[r.EntityType] = struct{}{}
		out = append(out, r.EntityType)
	}
	return out
}

// policies converts the rules to casbin policy lines.
func (rs RuleSet) policies() [][]string {
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, []string{r.Authority, r.EntityType, string(r.Action)})
	}
	return out
}

// DefaultRuleSet returns the built-in workshop authorities:
//
//   - ADMIN_*: every entity type
//   - WORKSHOP_* and HR_*: employees, users and phones
//   - EMPLOYEE: read access to employees and phones
func DefaultRuleSet() RuleSet {
	everything := []string{
		EntityDepartment, EntityPosition, EntityEmployee, EntityOrder, EntityTask,
		EntityClassifier, EntityUser, EntityPhone, EntityInternalAuthority,
		EntityExternalAuthority, EntityAuthorityPermission, EntityWorkshopEntityType,
	}
	people := []string{EntityEmployee, EntityUser, EntityPhone}
	colleagues := []string{EntityEmployee, EntityPhone}

	rules, err := NewRuleSet(
		AuthorityGrant{"ADMIN_READ", LevelRead, everything},
		AuthorityGrant{"ADMIN_WRITE", LevelWrite, everything},
		AuthorityGrant{"ADMIN_FULL", LevelFull, everything},
		AuthorityGrant{"WORKSHOP_READ", LevelRead, people},
		AuthorityGrant{"WORKSHOP_WRITE", LevelWrite, people},
		AuthorityGrant{"WORKSHOP_FULL", LevelFull, people},
		AuthorityGrant{"HR_READ", LevelRead, people},
		AuthorityGrant{"HR_WRITE", LevelWrite, people},
		AuthorityGrant{"HR_FULL", LevelFull, people},
		AuthorityGrant{"EMPLOYEE", LevelRead, colleagues},
	)
	if err != nil {
		panic(err)
	}
	return rules
}
