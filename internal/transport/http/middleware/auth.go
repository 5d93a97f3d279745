package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/transport/http/api"
)

type SessionValidator interface {
	SessionValid(ctx context.Context, userID, sessionID string) (bool, error)
}

// Auth attaches the bearer token's user to the context. Tokens that fail to
// parse, or whose session was revoked, leave the request anonymous. A nil
// sessions skips the revocation check.
func Auth(secret string, sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := authenticate(r, secret, sessions); ok {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, secret string, sessions SessionValidator) (auth.UserContext, bool) {
	token := BearerToken(r)
	if token == "" {
		return auth.UserContext{}, false
	}
	claims, err := auth.ParseToken(secret, token)
	if err != nil {
		return auth.UserContext{}, false
	}
	if sessions != nil && claims.SessionID != "" {
		valid, err := sessions.SessionValid(r.Context(), claims.UserID, claims.SessionID)
		if err != nil {
			slog.Warn("session lookup failed", "userId", claims.UserID, "err", err)
			return auth.UserContext{}, false
		}
		if !valid {
			return auth.UserContext{}, false
		}
	}
	return auth.UserContext{
		UserID:    claims.UserID,
		TenantID:  claims.TenantID,
		RoleID:    claims.RoleID,
		RoleName:  claims.RoleName,
		SessionID: claims.SessionID,
	}, true
}

// RequireAuth rejects requests that carry no valid user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func BearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// CurrentUser returns the authenticated user or writes a 401.
func CurrentUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
	}
	return user, ok
}
