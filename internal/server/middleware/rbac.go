package middleware

import "context"

// Role constants define the supported user roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// HasRole reports whether the authenticated user holds one of roles.
func HasRole(ctx context.Context, roles ...string) bool {
	role, ok := RoleFromContext(ctx)
	if !ok || role == "" {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
