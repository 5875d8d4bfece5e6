package middleware

import (
	"net/http"
	"slices"

	"github.com/pwannenmacher/credvault/internal/auth"
	"github.com/pwannenmacher/credvault/internal/models"
)

// RequireAnyRole admits callers holding any of roles
func RequireAnyRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			if !slices.Contains(roles, identity.Role) {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAction admits callers whose role the permission table allows to perform action
func RequireAction(action auth.Action) func(http.Handler) http.Handler {
	return RequireAnyRole(auth.RolesFor(action)...)
}
