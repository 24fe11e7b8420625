// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package auth

import "context"

type contextKey string

// AuthSubjectContextKey is the context key for the authenticated subject.
const AuthSubjectContextKey contextKey = "auth_subject"

// Role names issued by the platform.
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleLearner    = "learner"
)

// AuthSubject is the authenticated user behind a request.
type AuthSubject struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// AuthSubjectFromClaims converts verified claims. A missing role becomes
// RoleLearner.
func AuthSubjectFromClaims(claims *Claims) *AuthSubject {
	if claims == nil {
		return nil
	}
	role := claims.Role
	if role == "" {
		role = RoleLearner
	}
	return &AuthSubject{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     role,
	}
}

// ContextWithSubject returns a copy of ctx carrying s.
func ContextWithSubject(ctx context.Context, s *AuthSubject) context.Context {
	return context.WithValue(ctx, AuthSubjectContextKey, s)
}

// GetAuthSubject retrieves the AuthSubject from the request context.
func GetAuthSubject(ctx context.Context) *AuthSubject {
	subject, ok := ctx.Value(AuthSubjectContextKey).(*AuthSubject)
	if !ok {
		return nil
	}
	return subject
}
