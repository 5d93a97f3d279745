package notificationshandler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/notifications"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// NotificationService is satisfied by notifications.Service.
type NotificationService interface {
	List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]notifications.Notification, int, error)
	UnreadCount(ctx context.Context, tenantID, userID string) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
	MarkAllRead(ctx context.Context, tenantID, userID string) (int64, error)
	Settings(ctx context.Context, tenantID string) (notifications.Settings, error)
	UpdateSettings(ctx context.Context, tenantID string, in notifications.Settings) (notifications.Settings, error)
}

type Handler struct {
	Service NotificationService
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service NotificationService, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

// RegisterRoutes mounts the inbox for every signed-in user and the email
// settings behind settings:view plus an HR role.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/unread-count", h.handleUnreadCount)
		r.Post("/read-all", h.handleMarkAllRead)
		r.Post("/{notificationID}/read", h.handleMarkRead)
		r.With(middleware.RequirePermission(auth.PermSettingsView, h.Perms)).Get("/settings", h.handleSettings)
		r.With(middleware.RequirePermission(auth.PermSettingsView, h.Perms)).Put("/settings", h.handleUpdateSettings)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePage(r, 50, 200)
	unreadOnly := r.URL.Query().Get("unread") == "true"
	items, total, err := h.Service.List(r.Context(), user.TenantID, user.UserID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, requestID, err, "notification_list_failed", "failed to list notifications")
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}
	shared.SetTotal(w, total)
	api.Success(w, items, requestID)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	count, err := h.Service.UnreadCount(r.Context(), user.TenantID, user.UserID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "notification_count_failed", "failed to count notifications")
		return
	}
	api.Success(w, map[string]int{"unread": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	notificationID := chi.URLParam(r, "notificationID")
	if !shared.ValidID(w, requestID, "notificationID", notificationID) {
		return
	}
	if err := h.Service.MarkRead(r.Context(), user.TenantID, user.UserID, notificationID); err != nil {
		shared.WriteError(w, requestID, err, "notification_update_failed", "failed to update notification", shared.NotFound(notifications.ErrNotFound))
		return
	}
	api.Success(w, map[string]string{"status": "read"}, requestID)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.MarkAllRead(r.Context(), user.TenantID, user.UserID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "notification_update_failed", "failed to update notifications")
		return
	}
	api.Success(w, map[string]int64{"updated": updated}, middleware.GetRequestID(r.Context()))
}

func requireHR(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return user, false
	}
	if !auth.IsHR(user.RoleName) {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", middleware.GetRequestID(r.Context()))
		return user, false
	}
	return user, true
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := requireHR(w, r)
	if !ok {
		return
	}
	settings, err := h.Service.Settings(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "settings_failed", "failed to load settings")
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := requireHR(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload notifications.Settings
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	payload.EmailFrom = strings.TrimSpace(payload.EmailFrom)
	if payload.EmailFrom != "" {
		if _, err := mail.ParseAddress(payload.EmailFrom); err != nil {
			v := shared.NewValidator()
			v.Add("emailFrom", "must be a valid email address")
			v.Reject(w, requestID)
			return
		}
	}
	before, err := h.Service.UpdateSettings(r.Context(), user.TenantID, payload)
	if err != nil {
		shared.WriteError(w, requestID, err, "settings_failed", "failed to update settings")
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "notifications.settings.update", "tenant_settings", user.TenantID, before, payload)
	api.Success(w, payload, requestID)
}
