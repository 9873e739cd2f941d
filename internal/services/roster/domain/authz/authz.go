// Package authz evaluates role-based permission for privileged roster
// operations.
package authz

import "strings"

// Gate decides whether a caller's role claims grant privileged access.
type Gate struct {
	required map[string]struct{}
}

// NewGate builds a gate from the configured privileged role names. Role
// matching is trimmed and case-insensitive.
func NewGate(roles []string) Gate {
	required := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		required[role] = struct{}{}
	}
	return Gate{required: required}
}

// Authorized reports whether any caller role matches a required role.
func (g Gate) Authorized(callerRoles []string) bool {
	if len(g.required) == 0 {
		return false
	}
	for _, role := range callerRoles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		if _, ok := g.required[role]; ok {
			return true
		}
	}
	return false
}
