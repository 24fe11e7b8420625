// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package authz enforces role-based access with Casbin.
//
// The model is RBAC with keyMatch on request paths:
//
//	m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
//
// The embedded policy.csv lets learners post violation reports and read the
// protection configuration, and restricts every read of the security log,
// its aggregates, alerts and live feed to administrators. Roles inherit
// upward: instructor includes learner and admin includes instructor.
//
// The subject is the role claim of the caller's token. Every authenticated
// caller also holds EnforcerConfig.DefaultRole, so tokens carrying an
// unknown role can still report violations.
//
// A policy file (security.policy_path) replaces the embedded policy and is
// reloaded every ReloadInterval when set.
package authz
