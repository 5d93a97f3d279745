package reportshandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/reports"
	"hrconsole/internal/platform/jobs"
	"hrconsole/internal/transport/http/middleware"
)

const runID = "7e6d5c4b-3a29-4180-9f8e-7d6c5b4a0001"

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeReports struct {
	filter reports.JobRunFilter
}

func (f *fakeReports) Dashboard(_ context.Context, user auth.UserContext) (reports.Dashboard, error) {
	d := reports.Dashboard{Employee: &reports.EmployeeSummary{OpenLeaveRequests: 1}}
	if auth.IsHR(user.RoleName) {
		d.HR = &reports.HRSummary{Headcount: 42}
	}
	return d, nil
}

func (f *fakeReports) JobRuns(_ context.Context, _ string, filter reports.JobRunFilter, _, _ int) ([]reports.JobRun, int, error) {
	f.filter = filter
	return []reports.JobRun{{ID: runID, JobType: jobs.JobLeaveReminder, Status: jobs.StatusCompleted}}, 1, nil
}

func (f *fakeReports) JobRun(_ context.Context, _, id string) (reports.JobRun, error) {
	if id != runID {
		return reports.JobRun{}, reports.ErrNotFound
	}
	return reports.JobRun{ID: runID}, nil
}

type fakeRunner struct {
	ran string
	err error
}

func (f *fakeRunner) RunNow(_ context.Context, jobType, _ string) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.ran = jobType
	return map[string]any{"reminded": 2}, nil
}

func newRouter(svc *fakeReports, runner *fakeRunner, role string) http.Handler {
	h := NewHandler(svc, runner, allowAll{}, nil)
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

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestDashboardSections(t *testing.T) {
	rec := do(newRouter(&fakeReports{}, &fakeRunner{}, auth.RoleEmployee), http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"employee"`)
	assert.NotContains(t, rec.Body.String(), `"hr"`)

	rec = do(newRouter(&fakeReports{}, &fakeRunner{}, auth.RoleHR), http.MethodGet, "/dashboard")
	assert.Contains(t, rec.Body.String(), `"headcount":42`)
}

func TestListRunsFilter(t *testing.T) {
	svc := &fakeReports{}
	rec := do(newRouter(svc, &fakeRunner{}, auth.RoleHR), http.MethodGet, "/jobs/runs?jobType=leave_reminder&status=FAILED&from=2026-01-01")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, jobs.StatusFailed, svc.filter.Status)
	require.NotNil(t, svc.filter.StartedFrom)

	rec = do(newRouter(svc, &fakeRunner{}, auth.RoleHR), http.MethodGet, "/jobs/runs?jobType=payroll")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRunNotFound(t *testing.T) {
	rec := do(newRouter(&fakeReports{}, &fakeRunner{}, auth.RoleHR), http.MethodGet, "/jobs/runs/7e6d5c4b-3a29-4180-9f8e-7d6c5b4a0009")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunNow(t *testing.T) {
	runner := &fakeRunner{}
	rec := do(newRouter(&fakeReports{}, runner, auth.RoleHR), http.MethodPost, "/jobs/recruitment_sweep/run")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, jobs.JobRecruitmentSweep, runner.ran)

	rec = do(newRouter(&fakeReports{}, &fakeRunner{err: jobs.ErrUnknownJob}, auth.RoleHR), http.MethodPost, "/jobs/payroll/run")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(newRouter(&fakeReports{}, &fakeRunner{err: errors.New("boom")}, auth.RoleHR), http.MethodPost, "/jobs/leave_reminder/run")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(newRouter(&fakeReports{}, runner, auth.RoleManager), http.MethodPost, "/jobs/leave_reminder/run")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
