package reportshandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/reports"
	"hrconsole/internal/platform/jobs"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// ReportService is satisfied by reports.Service.
type ReportService interface {
	Dashboard(ctx context.Context, user auth.UserContext) (reports.Dashboard, error)
	JobRuns(ctx context.Context, tenantID string, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, int, error)
	JobRun(ctx context.Context, tenantID, runID string) (reports.JobRun, error)
}

// JobRunner is satisfied by jobs.Service.
type JobRunner interface {
	RunNow(ctx context.Context, jobType, tenantID string) (any, error)
}

type Handler struct {
	Service ReportService
	Jobs    JobRunner
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service ReportService, runner JobRunner, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Jobs: runner, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermDashboardView, h.Perms)).Get("/dashboard", h.handleDashboard)
	r.Route("/jobs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSettingsView, h.Perms)).Get("/runs", h.handleListRuns)
		r.With(middleware.RequirePermission(auth.PermSettingsView, h.Perms)).Get("/runs/{runID}", h.handleGetRun)
		r.With(middleware.RequirePermission(auth.PermSettingsView, h.Perms)).Post("/{jobType}/run", h.handleRunNow)
	})
}

var jobStatuses = []string{jobs.StatusRunning, jobs.StatusCompleted, jobs.StatusFailed}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	dashboard, err := h.Service.Dashboard(r.Context(), user)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "dashboard_failed", "failed to build dashboard")
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	filter := reports.JobRunFilter{
		JobType: strings.TrimSpace(q.Get("jobType")),
		Status:  strings.ToLower(strings.TrimSpace(q.Get("status"))),
	}
	v := shared.NewValidator()
	v.Enum("jobType", filter.JobType, []string{jobs.JobLeaveReminder, jobs.JobRecruitmentSweep}, "is not a known job type")
	v.Enum("status", filter.Status, jobStatuses, "must be running, completed or failed")
	if raw := q.Get("from"); raw != "" {
		if from, ok := v.Date("from", raw); ok {
			filter.StartedFrom = &from
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, ok := v.Date("to", raw); ok {
			end := to.Add(24*time.Hour - time.Nanosecond)
			filter.StartedTo = &end
		}
	}
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePage(r, 50, 200)
	runs, total, err := h.Service.JobRuns(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, requestID, err, "job_runs_failed", "failed to list job runs")
		return
	}
	if runs == nil {
		runs = []reports.JobRun{}
	}
	shared.SetTotal(w, total)
	api.Success(w, runs, requestID)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")
	if !shared.ValidID(w, requestID, "runID", runID) {
		return
	}
	run, err := h.Service.JobRun(r.Context(), user.TenantID, runID)
	if err != nil {
		shared.WriteError(w, requestID, err, "job_run_failed", "failed to load job run", shared.NotFound(reports.ErrNotFound))
		return
	}
	api.Success(w, run, requestID)
}

func (h *Handler) handleRunNow(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if !auth.IsHR(user.RoleName) {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", requestID)
		return
	}
	jobType := chi.URLParam(r, "jobType")
	details, err := h.Jobs.RunNow(r.Context(), jobType, user.TenantID)
	if err != nil {
		shared.WriteError(w, requestID, err, "job_run_failed", "job run failed",
			shared.ErrorCase{Err: jobs.ErrUnknownJob, Status: http.StatusNotFound, Code: "unknown_job", Message: "unknown job type"})
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "jobs.run", "job", jobType, nil, details)
	api.Success(w, map[string]any{"jobType": jobType, "details": details}, requestID)
}
