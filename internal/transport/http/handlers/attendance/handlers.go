package attendancehandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/attendance"
	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// AttendanceService is satisfied by attendance.Service.
type AttendanceService interface {
	ClockIn(ctx context.Context, user auth.UserContext, note string) (attendance.Record, error)
	ClockOut(ctx context.Context, user auth.UserContext, note string) (attendance.Record, error)
	List(ctx context.Context, user auth.UserContext, filter attendance.Filter) ([]attendance.Record, int, error)
	Summary(ctx context.Context, user auth.UserContext, employeeID string, from, to time.Time) (attendance.Summary, error)
}

type Handler struct {
	Service AttendanceService
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service AttendanceService, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceCreate, h.Perms)).Post("/clock-in", h.handleClockIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceCreate, h.Perms)).Post("/clock-out", h.handleClockOut)
		r.With(middleware.RequirePermission(auth.PermAttendanceView, h.Perms)).Get("/records", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAttendanceView, h.Perms)).Get("/summary", h.handleSummary)
	})
}

var attendanceErrors = []shared.ErrorCase{
	shared.NotFound(attendance.ErrNotFound),
	shared.Forbidden(attendance.ErrForbidden),
	{Err: attendance.ErrNoEmployee, Status: http.StatusForbidden, Code: "no_employee_record", Message: "an employee record is required"},
	shared.Conflict(attendance.ErrAlreadyClockedIn, "already_clocked_in"),
	shared.Conflict(attendance.ErrNotClockedIn, "not_clocked_in"),
}

type clockPayload struct {
	Note string `json:"note"`
}

func (h *Handler) clock(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, auth.UserContext, string) (attendance.Record, error)) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload clockPayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.MaxLen("note", payload.Note, 500)
	if v.Reject(w, requestID) {
		return
	}
	record, err := fn(r.Context(), user, payload.Note)
	if err != nil {
		shared.WriteError(w, requestID, err, "attendance_clock_failed", "failed to record attendance", attendanceErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, action, "attendance_record", record.ID, nil, record)
	api.Success(w, record, requestID)
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, "attendance.clock_in", h.Service.ClockIn)
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, "attendance.clock_out", h.Service.ClockOut)
}

// parseRange reads employeeId, from and to; empty values are left zero.
func parseRange(r *http.Request, v *shared.Validator) (string, time.Time, time.Time) {
	q := r.URL.Query()
	employeeID := strings.TrimSpace(q.Get("employeeId"))
	v.UUID("employeeId", employeeID, false)
	var from, to time.Time
	if raw := q.Get("from"); raw != "" {
		from, _ = v.Date("from", raw)
	}
	if raw := q.Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			to = parsed.Add(24*time.Hour - time.Nanosecond)
		}
	}
	v.DateOrder("from", from, "to", to)
	return employeeID, from, to
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	employeeID, from, to := parseRange(r, v)
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePage(r, 100, 500)
	records, total, err := h.Service.List(r.Context(), user, attendance.Filter{
		EmployeeID: employeeID,
		From:       from,
		To:         to,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.WriteError(w, requestID, err, "attendance_list_failed", "failed to list attendance", attendanceErrors...)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	shared.SetTotal(w, total)
	api.Success(w, records, requestID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	employeeID, from, to := parseRange(r, v)
	if v.Reject(w, requestID) {
		return
	}
	summary, err := h.Service.Summary(r.Context(), user, employeeID, from, to)
	if err != nil {
		shared.WriteError(w, requestID, err, "attendance_summary_failed", "failed to summarise attendance", attendanceErrors...)
		return
	}
	api.Success(w, summary, requestID)
}
