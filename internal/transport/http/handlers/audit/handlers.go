package audithandler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// AuditReader is satisfied by audit.Service.
type AuditReader interface {
	Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error)
	List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
	Each(ctx context.Context, tenantID string, filter audit.Filter, fn func(audit.Event) error) error
}

type Handler struct {
	Service AuditReader
	Perms   middleware.PermissionStore
}

func NewHandler(service AuditReader, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAuditView, h.Perms)).Get("/events", h.handleListEvents)
		r.With(middleware.RequirePermission(auth.PermAuditView, h.Perms)).Get("/events/export", h.handleExportEvents)
	})
}

func parseFilter(r *http.Request, v *shared.Validator) audit.Filter {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     strings.TrimSpace(q.Get("action")),
		EntityType: strings.TrimSpace(q.Get("entityType")),
		EntityID:   strings.TrimSpace(q.Get("entityId")),
		ActorUser:  strings.TrimSpace(q.Get("actorUserId")),
	}
	v.UUID("actorUserId", filter.ActorUser, false)
	if raw := q.Get("from"); raw != "" {
		filter.From, _ = v.Date("from", raw)
	}
	if raw := q.Get("to"); raw != "" {
		if to, ok := v.Date("to", raw); ok {
			filter.To = to.Add(24*time.Hour - time.Nanosecond)
		}
	}
	v.DateOrder("from", filter.From, "to", filter.To)
	return filter
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := parseFilter(r, v)
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePage(r, 100, 500)
	includeDetails := r.URL.Query().Get("includeDetails") == "true"

	total, err := h.Service.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err)
	}
	events, err := h.Service.List(r.Context(), user.TenantID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, requestID, err, "audit_list_failed", "failed to list audit events")
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, events, requestID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	filter := parseFilter(r, v)
	if v.Reject(w, requestID) {
		return
	}
	var buf bytes.Buffer
	out, err := audit.NewEventWriter(&buf)
	if err == nil {
		err = h.Service.Each(r.Context(), user.TenantID, filter, out.Write)
	}
	if err == nil {
		err = out.Flush()
	}
	if err != nil {
		shared.WriteError(w, requestID, err, "audit_export_failed", "failed to export audit events")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	_, _ = w.Write(buf.Bytes())
}
