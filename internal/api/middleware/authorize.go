package middleware

import (
	"net/http"
	"slices"

	"github.com/phrazzld/task-api/internal/api"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
)

// RequireRole lets the request through only when the authenticated user has
// one of roles. It must run after Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r)
			if !ok {
				api.HandleAPIError(w, r, domain.ErrUnauthorized)
				return
			}
			if !slices.Contains(roles, user.Role) {
				api.HandleAPIError(w, r, service.NewRoleError(user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
