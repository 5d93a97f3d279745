package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"hrconsole/internal/transport/http/api"
)

// PermissionStore answers whether a role holds a "<module>:<action>" key.
type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return guard(store, true, permission)
}

// RequireAllPermissions passes only when the role holds every key.
func RequireAllPermissions(store PermissionStore, permissions ...string) func(http.Handler) http.Handler {
	return guard(store, true, permissions...)
}

// RequireAnyPermission passes when the role holds at least one key.
func RequireAnyPermission(store PermissionStore, permissions ...string) func(http.Handler) http.Handler {
	return guard(store, false, permissions...)
}

func guard(store PermissionStore, all bool, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}
			granted := all
			for _, permission := range permissions {
				allowed, err := store.HasPermission(r.Context(), user.RoleID, permission)
				if err != nil {
					slog.Error("permission check failed", "roleId", user.RoleID, "permission", permission, "err", err)
					api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
					return
				}
				if allowed != all {
					granted = allowed
					break
				}
			}
			if !granted || len(permissions) == 0 {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
