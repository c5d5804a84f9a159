// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

// Package authz decides whether granted authorities permit an action on a
// workshop entity type.
//
// Authorities such as HR_WRITE are casbin subjects. Each policy line
// names one authority, one entity type and one permission type:
//
//	p, HR_WRITE, Employee, get
//	p, HR_WRITE, Employee, put
//
// The model matches all three fields exactly:
//
//	[matchers]
//	m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
//
// Levels expand into permission types when a RuleSet is built:
//
//	read  -> get
//	write -> get, put
//	full  -> get, put, post, delete
//
// Web requests are evaluated from their method and path. The first
// segment below the secured prefix names the entity type:
//
//	GET    /internal/departments/7          -> Department, get
//	DELETE /internal/authority-permissions  -> AuthorityPermission, delete
//
// Anything the policies do not name is denied.
package authz
