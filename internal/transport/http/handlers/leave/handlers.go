package leavehandler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/leave"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// LeaveService is satisfied by leave.Service.
type LeaveService interface {
	Actor(ctx context.Context, user auth.UserContext) (leave.Actor, error)
	ListTypes(ctx context.Context, tenantID string) ([]leave.LeaveType, error)
	CreateType(ctx context.Context, tenantID string, t leave.LeaveType) (leave.LeaveType, error)
	ListPolicies(ctx context.Context, tenantID string) ([]leave.Policy, error)
	UpsertPolicy(ctx context.Context, tenantID string, p leave.Policy) (leave.Policy, error)
	ListHolidays(ctx context.Context, tenantID string, year int) ([]leave.Holiday, error)
	CreateHoliday(ctx context.Context, tenantID string, h leave.Holiday) (leave.Holiday, error)
	DeleteHoliday(ctx context.Context, tenantID, holidayID string) error
	Balances(ctx context.Context, actor leave.Actor, employeeID string, year int) ([]leave.Balance, error)
	Adjust(ctx context.Context, tenantID, actorUserID string, in leave.AdjustmentInput) (leave.Adjustment, error)
	CreateRequest(ctx context.Context, actor leave.Actor, in leave.RequestInput) (leave.Request, error)
	ListRequests(ctx context.Context, actor leave.Actor, filter leave.RequestFilter) ([]leave.Request, int, error)
	GetRequest(ctx context.Context, actor leave.Actor, requestID string) (leave.Request, error)
	Approve(ctx context.Context, actor leave.Actor, requestID string) (leave.Request, leave.Request, error)
	Reject(ctx context.Context, actor leave.Actor, requestID, reason string) (leave.Request, leave.Request, error)
	Cancel(ctx context.Context, actor leave.Actor, requestID string) (leave.Request, leave.Request, error)
	BalanceReport(ctx context.Context, tenantID string, year int) ([]leave.BalanceReportRow, error)
}

type Handler struct {
	Service LeaveService
	Perms   middleware.PermissionStore
	Audit   *audit.Service
	Idem    middleware.IdempotencyBackend
	Now     func() time.Time
}

func NewHandler(service LeaveService, perms middleware.PermissionStore, auditSvc *audit.Service, idem middleware.IdempotencyBackend) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Idem: idem, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveSettingsView, h.Perms)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveSettingsEdit, h.Perms)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermLeaveSettingsView, h.Perms)).Get("/policies", h.handleListPolicies)
		r.With(middleware.RequirePermission(auth.PermLeaveSettingsEdit, h.Perms)).Put("/policies", h.handleUpsertPolicy)
		r.With(middleware.RequirePermission(auth.PermLeaveSettingsView, h.Perms)).Get("/holidays", h.handleListHolidays)
		r.With(middleware.RequirePermission(auth.PermLeaveSettingsEdit, h.Perms)).Post("/holidays", h.handleCreateHoliday)
		r.With(middleware.RequirePermission(auth.PermLeaveSettingsEdit, h.Perms)).Delete("/holidays/{holidayID}", h.handleDeleteHoliday)

		r.With(middleware.RequirePermission(auth.PermLeaveBalancesView, h.Perms)).Get("/balances", h.handleBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveBalancesEdit, h.Perms)).Post("/balances/adjust", h.handleAdjust)

		r.With(middleware.RequirePermission(auth.PermLeaveRequestsView, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(
			middleware.RequirePermission(auth.PermLeaveRequestsCreate, h.Perms),
			middleware.Idempotent(h.Idem, "leave.requests.create"),
		).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRequestsView, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRequestsEdit, h.Perms)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermLeaveRequestsEdit, h.Perms)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermLeaveRequestsCreate, h.Perms)).Post("/requests/{requestID}/cancel", h.handleCancel)

		r.With(middleware.RequirePermission(auth.PermLeaveBalancesEdit, h.Perms)).Get("/reports/balances", h.handleReport)
		r.With(middleware.RequirePermission(auth.PermLeaveBalancesEdit, h.Perms)).Get("/reports/balances.csv", h.handleReportCSV)
		r.With(middleware.RequirePermission(auth.PermLeaveBalancesEdit, h.Perms)).Get("/reports/balances.pdf", h.handleReportPDF)
	})
}

var leaveErrors = []shared.ErrorCase{
	shared.NotFound(leave.ErrNotFound),
	shared.Forbidden(leave.ErrForbidden),
	{Err: leave.ErrHRApprovalRequired, Status: http.StatusForbidden, Code: "hr_approval_required", Message: "this request must be approved by HR"},
	{Err: leave.ErrInsufficientBalance, Status: http.StatusUnprocessableEntity, Code: "insufficient_balance", Message: "insufficient leave balance"},
	{Err: leave.ErrNoEmployee, Status: http.StatusForbidden, Code: "no_employee_record", Message: "an employee record is required"},
	shared.Conflict(leave.ErrInvalidState, "invalid_state"),
	shared.BadRequest(leave.ErrInvalidRange, "invalid_range"),
	shared.BadRequest(leave.ErrNoPolicy, "no_policy"),
	shared.BadRequest(leave.ErrInvalidPolicy, "invalid_policy"),
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (leave.Actor, bool) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return leave.Actor{}, false
	}
	actor, err := h.Service.Actor(r.Context(), user)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "leave_actor_failed", "failed to resolve employee")
		return leave.Actor{}, false
	}
	return actor, true
}

func (h *Handler) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return h.Now().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		v := shared.NewValidator()
		v.Add("year", "must be a four digit year")
		v.Reject(w, middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return year, true
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	types, err := h.Service.ListTypes(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "leave_types_failed", "failed to list leave types")
		return
	}
	if types == nil {
		types = []leave.LeaveType{}
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

type typePayload struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	IsPaid      bool   `json:"isPaid"`
	RequiresDoc bool   `json:"requiresDoc"`
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload typePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Required("code", payload.Code, "is required")
	if v.Reject(w, requestID) {
		return
	}
	lt, err := h.Service.CreateType(r.Context(), user.TenantID, leave.LeaveType{
		Name:        payload.Name,
		Code:        payload.Code,
		IsPaid:      payload.IsPaid,
		RequiresDoc: payload.RequiresDoc,
	})
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_type_create_failed", "failed to create leave type", leaveErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "leave.type.create", "leave_type", lt.ID, nil, lt)
	api.Created(w, lt, requestID)
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	policies, err := h.Service.ListPolicies(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "leave_policies_failed", "failed to list leave policies")
		return
	}
	if policies == nil {
		policies = []leave.Policy{}
	}
	api.Success(w, policies, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpsertPolicy(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload leave.Policy
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("leaveTypeId", payload.LeaveTypeID, true)
	v.NonNegative("entitlement", payload.Entitlement)
	v.NonNegative("carryOverLimit", payload.CarryOverLimit)
	v.Enum("accrualPeriod", payload.AccrualPeriod, []string{leave.AccrualYearly, leave.AccrualMonthly}, "must be yearly or monthly")
	if v.Reject(w, requestID) {
		return
	}
	payload.ID = ""
	payload.AccrualPeriod = strings.ToLower(strings.TrimSpace(payload.AccrualPeriod))
	policy, err := h.Service.UpsertPolicy(r.Context(), user.TenantID, payload)
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_policy_failed", "failed to save leave policy", leaveErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "leave.policy.upsert", "leave_policy", policy.ID, nil, policy)
	api.Success(w, policy, requestID)
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	holidays, err := h.Service.ListHolidays(r.Context(), user.TenantID, year)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "leave_holidays_failed", "failed to list holidays")
		return
	}
	if holidays == nil {
		holidays = []leave.Holiday{}
	}
	api.Success(w, holidays, middleware.GetRequestID(r.Context()))
}

type holidayPayload struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (h *Handler) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload holidayPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}
	holiday, err := h.Service.CreateHoliday(r.Context(), user.TenantID, leave.Holiday{
		Date:   date,
		Name:   strings.TrimSpace(payload.Name),
		Region: strings.TrimSpace(payload.Region),
	})
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_holiday_failed", "failed to create holiday", leaveErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "leave.holiday.create", "holiday", holiday.ID, nil, holiday)
	api.Created(w, holiday, requestID)
}

func (h *Handler) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	holidayID := chi.URLParam(r, "holidayID")
	if !shared.ValidID(w, requestID, "holidayID", holidayID) {
		return
	}
	if err := h.Service.DeleteHoliday(r.Context(), user.TenantID, holidayID); err != nil {
		shared.WriteError(w, requestID, err, "leave_holiday_failed", "failed to delete holiday", leaveErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "leave.holiday.delete", "holiday", holidayID, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}
	if employeeID == "" {
		shared.WriteError(w, requestID, leave.ErrNoEmployee, "leave_balances_failed", "failed to load balances", leaveErrors...)
		return
	}
	if !shared.ValidID(w, requestID, "employeeId", employeeID) {
		return
	}
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	balances, err := h.Service.Balances(r.Context(), actor, employeeID, year)
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_balances_failed", "failed to load balances", leaveErrors...)
		return
	}
	if balances == nil {
		balances = []leave.Balance{}
	}
	api.Success(w, balances, requestID)
}

type adjustPayload struct {
	EmployeeID    string  `json:"employeeId"`
	LeaveTypeID   string  `json:"leaveTypeId"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
	EffectiveDate string  `json:"effectiveDate"`
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload adjustPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("employeeId", payload.EmployeeID, true)
	v.UUID("leaveTypeId", payload.LeaveTypeID, true)
	v.Required("reason", payload.Reason, "is required")
	if payload.Amount == 0 {
		v.Add("amount", "must not be zero")
	}
	var effective time.Time
	if strings.TrimSpace(payload.EffectiveDate) != "" {
		effective, _ = v.Date("effectiveDate", payload.EffectiveDate)
	}
	if v.Reject(w, requestID) {
		return
	}
	adj, err := h.Service.Adjust(r.Context(), user.TenantID, user.UserID, leave.AdjustmentInput{
		EmployeeID:    payload.EmployeeID,
		LeaveTypeID:   payload.LeaveTypeID,
		Amount:        payload.Amount,
		Reason:        payload.Reason,
		EffectiveDate: effective,
	})
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_adjust_failed", "failed to adjust balance", leaveErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "leave.balance.adjust", "leave_adjustment", adj.ID, nil, adj)
	api.Created(w, adj, requestID)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	page := shared.ParsePage(r, 100, 500)
	filter := leave.RequestFilter{
		EmployeeID: strings.TrimSpace(q.Get("employeeId")),
		Status:     strings.TrimSpace(q.Get("status")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	v := shared.NewValidator()
	v.UUID("employeeId", filter.EmployeeID, false)
	v.Enum("status", filter.Status, []string{leave.StatusPending, leave.StatusPendingHR, leave.StatusApproved, leave.StatusRejected, leave.StatusCancelled}, "is not a known status")
	if raw := q.Get("from"); raw != "" {
		if from, ok := v.Date("from", raw); ok {
			filter.From = &from
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, ok := v.Date("to", raw); ok {
			filter.To = &to
		}
	}
	if v.Reject(w, requestID) {
		return
	}
	requests, total, err := h.Service.ListRequests(r.Context(), actor, filter)
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_requests_failed", "failed to list leave requests", leaveErrors...)
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	shared.SetTotal(w, total)
	api.Success(w, requests, requestID)
}

type requestPayload struct {
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	StartHalf   bool   `json:"startHalf"`
	EndHalf     bool   `json:"endHalf"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload requestPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("employeeId", payload.EmployeeID, false)
	v.UUID("leaveTypeId", payload.LeaveTypeID, true)
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestID) {
		return
	}
	req, err := h.Service.CreateRequest(r.Context(), actor, leave.RequestInput{
		EmployeeID:  strings.TrimSpace(payload.EmployeeID),
		LeaveTypeID: payload.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		StartHalf:   payload.StartHalf,
		EndHalf:     payload.EndHalf,
		Reason:      strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_request_failed", "failed to create leave request", leaveErrors...)
		return
	}
	h.Audit.Log(r.Context(), actor.TenantID, actor.UserID, "leave.request.create", "leave_request", req.ID, nil, req)
	api.Created(w, req, requestID)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "requestID")
	if !shared.ValidID(w, requestID, "requestID", id) {
		return
	}
	req, err := h.Service.GetRequest(r.Context(), actor, id)
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_request_failed", "failed to load leave request", leaveErrors...)
		return
	}
	api.Success(w, req, requestID)
}

type decision func(ctx context.Context, actor leave.Actor, id string) (leave.Request, leave.Request, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, fn decision) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "requestID")
	if !shared.ValidID(w, requestID, "requestID", id) {
		return
	}
	before, after, err := fn(r.Context(), actor, id)
	if err != nil {
		shared.WriteError(w, requestID, err, "leave_decision_failed", "failed to update leave request", leaveErrors...)
		return
	}
	h.Audit.Log(r.Context(), actor.TenantID, actor.UserID, action, "leave_request", id, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "leave.request.approve", h.Service.Approve)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "leave.request.cancel", h.Service.Cancel)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var payload rejectPayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	h.decide(w, r, "leave.request.reject", func(ctx context.Context, actor leave.Actor, id string) (leave.Request, leave.Request, error) {
		return h.Service.Reject(ctx, actor, id, strings.TrimSpace(payload.Reason))
	})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (auth.UserContext, int, []leave.BalanceReportRow, bool) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return auth.UserContext{}, 0, nil, false
	}
	year, ok := h.yearParam(w, r)
	if !ok {
		return auth.UserContext{}, 0, nil, false
	}
	rows, err := h.Service.BalanceReport(r.Context(), user.TenantID, year)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "leave_report_failed", "failed to build balance report", leaveErrors...)
		return auth.UserContext{}, 0, nil, false
	}
	if rows == nil {
		rows = []leave.BalanceReportRow{}
	}
	return user, year, rows, true
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	_, _, rows, ok := h.report(w, r)
	if !ok {
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	user, year, rows, ok := h.report(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := leave.WriteBalancesCSV(&buf, rows); err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "leave_report_failed", "failed to build balance report")
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "leave.report.export", "leave_balance", "csv", nil, map[string]int{"rows": len(rows), "year": year})
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=leave-balances-"+strconv.Itoa(year)+".csv")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	user, year, rows, ok := h.report(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := leave.WriteBalancesPDF(&buf, rows, year, h.Now()); err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "leave_report_failed", "failed to build balance report")
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "leave.report.export", "leave_balance", "pdf", nil, map[string]int{"rows": len(rows), "year": year})
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=leave-balances-"+strconv.Itoa(year)+".pdf")
	_, _ = w.Write(buf.Bytes())
}
