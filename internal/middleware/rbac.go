package middleware

import (
	"net/http"

	"mealtrust/internal/models"
)

// RBACMiddleware handles role-based access control. Roles come from the
// validated token claims, so no DB round trip is needed.
type RBACMiddleware struct{}

// NewRBACMiddleware creates a new RBAC middleware
func NewRBACMiddleware() *RBACMiddleware {
	return &RBACMiddleware{}
}

// RequireRole checks if the actor has the required role
func (m *RBACMiddleware) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return m.RequireAnyRole(role)
}

// RequireAnyRole checks if the actor has any of the required roles
func (m *RBACMiddleware) RequireAnyRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			for _, required := range roles {
				if actor.Role == required {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}
