package notificationshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/notifications"
	"hrconsole/internal/transport/http/middleware"
)

const notificationID = "5d2c8b1a-4e3f-4a6b-9c7d-8e9f0a1b0001"

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeService struct {
	unreadOnly bool
	markErr    error
	enabled    bool
	from       string
}

func (f *fakeService) List(_ context.Context, _, _ string, unreadOnly bool, _, _ int) ([]notifications.Notification, int, error) {
	f.unreadOnly = unreadOnly
	return nil, 0, nil
}

func (f *fakeService) UnreadCount(context.Context, string, string) (int, error) { return 4, nil }

func (f *fakeService) MarkRead(context.Context, string, string, string) error { return f.markErr }

func (f *fakeService) MarkAllRead(context.Context, string, string) (int64, error) { return 4, nil }

func (f *fakeService) Settings(context.Context, string) (notifications.Settings, error) {
	return notifications.Settings{EmailEnabled: f.enabled, EmailFrom: f.from}, nil
}

func (f *fakeService) UpdateSettings(_ context.Context, _ string, in notifications.Settings) (notifications.Settings, error) {
	before := notifications.Settings{EmailEnabled: f.enabled, EmailFrom: f.from}
	f.enabled, f.from = in.EmailEnabled, in.EmailFrom
	return before, nil
}

func newRouter(svc *fakeService, role string) http.Handler {
	h := NewHandler(svc, allowAll{}, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestListUnreadOnly(t *testing.T) {
	svc := &fakeService{}
	rec := do(newRouter(svc, auth.RoleEmployee), http.MethodGet, "/notifications/?unread=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.unreadOnly)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestUnreadCountAndReadAll(t *testing.T) {
	router := newRouter(&fakeService{}, auth.RoleEmployee)
	rec := do(router, http.MethodGet, "/notifications/unread-count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":4`)

	rec = do(router, http.MethodPost, "/notifications/read-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":4`)
}

func TestMarkReadNotFound(t *testing.T) {
	rec := do(newRouter(&fakeService{markErr: notifications.ErrNotFound}, auth.RoleEmployee), http.MethodPost, "/notifications/"+notificationID+"/read", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsRequireHR(t *testing.T) {
	rec := do(newRouter(&fakeService{}, auth.RoleManager), http.MethodGet, "/notifications/settings", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	svc := &fakeService{}
	rec = do(newRouter(svc, auth.RoleAdministrator), http.MethodPut, "/notifications/settings", `{"emailEnabled":true,"emailFrom":" hr@example.com "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, svc.enabled)
	assert.Equal(t, "hr@example.com", svc.from)

	rec = do(newRouter(svc, auth.RoleHR), http.MethodPut, "/notifications/settings", `{"emailEnabled":true,"emailFrom":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
