package leavehandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/leave"
	"hrconsole/internal/transport/http/middleware"
)

const (
	empID     = "0c7d2b8e-5a51-4f4e-9a39-1b1f0a7e0001"
	typeID    = "0c7d2b8e-5a51-4f4e-9a39-1b1f0a7e0002"
	requestID = "0c7d2b8e-5a51-4f4e-9a39-1b1f0a7e0003"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeService struct {
	LeaveService
	employeeID  string
	created     leave.RequestInput
	createErr   error
	approveErr  error
	rejected    string
	balancesFor string
	balanceYear int
	filter      leave.RequestFilter
}

func (f *fakeService) Actor(_ context.Context, user auth.UserContext) (leave.Actor, error) {
	return leave.Actor{UserID: user.UserID, TenantID: user.TenantID, RoleName: user.RoleName, EmployeeID: f.employeeID}, nil
}

func (f *fakeService) CreateRequest(_ context.Context, _ leave.Actor, in leave.RequestInput) (leave.Request, error) {
	if f.createErr != nil {
		return leave.Request{}, f.createErr
	}
	f.created = in
	return leave.Request{ID: requestID, EmployeeID: empID, Status: leave.StatusPending, Days: 2}, nil
}

func (f *fakeService) ListRequests(_ context.Context, _ leave.Actor, filter leave.RequestFilter) ([]leave.Request, int, error) {
	f.filter = filter
	return nil, 3, nil
}

func (f *fakeService) Approve(context.Context, leave.Actor, string) (leave.Request, leave.Request, error) {
	if f.approveErr != nil {
		return leave.Request{}, leave.Request{}, f.approveErr
	}
	return leave.Request{ID: requestID, Status: leave.StatusPending}, leave.Request{ID: requestID, Status: leave.StatusApproved}, nil
}

func (f *fakeService) Reject(_ context.Context, _ leave.Actor, _ string, reason string) (leave.Request, leave.Request, error) {
	f.rejected = reason
	return leave.Request{}, leave.Request{ID: requestID, Status: leave.StatusRejected}, nil
}

func (f *fakeService) Balances(_ context.Context, _ leave.Actor, employeeID string, year int) ([]leave.Balance, error) {
	f.balancesFor = employeeID
	f.balanceYear = year
	return []leave.Balance{{LeaveTypeID: typeID, Year: year, Entitlement: 20, Remaining: 18}}, nil
}

func (f *fakeService) BalanceReport(_ context.Context, _ string, year int) ([]leave.BalanceReportRow, error) {
	return []leave.BalanceReportRow{{EmployeeID: empID, EmployeeName: "Ada Lovelace", Balance: leave.Balance{LeaveTypeName: "Annual", Year: year, Entitlement: 20}}}, nil
}

func newRouter(svc *fakeService) http.Handler {
	h := NewHandler(svc, allowAll{}, nil, nil)
	h.Now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: auth.RoleEmployee})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateRequest(t *testing.T) {
	svc := &fakeService{employeeID: empID}
	rec := do(t, newRouter(svc), http.MethodPost, "/leave/requests", `{"leaveTypeId":"`+typeID+`","startDate":"2026-03-09","endDate":"2026-03-10","endHalf":true,"reason":" trip "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, typeID, svc.created.LeaveTypeID)
	assert.Equal(t, 9, svc.created.StartDate.Day())
	assert.True(t, svc.created.EndHalf)
	assert.Equal(t, "trip", svc.created.Reason)
}

func TestCreateRequestRejectsReversedRange(t *testing.T) {
	rec := do(t, newRouter(&fakeService{}), http.MethodPost, "/leave/requests", `{"leaveTypeId":"`+typeID+`","startDate":"2026-03-10","endDate":"2026-03-09"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestCreateRequestMapsInsufficientBalance(t *testing.T) {
	svc := &fakeService{employeeID: empID, createErr: leave.ErrInsufficientBalance}
	rec := do(t, newRouter(svc), http.MethodPost, "/leave/requests", `{"leaveTypeId":"`+typeID+`","startDate":"2026-03-09","endDate":"2026-03-10"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_balance")
}

func TestApproveMapsWorkflowErrors(t *testing.T) {
	cases := map[error]int{
		leave.ErrHRApprovalRequired: http.StatusForbidden,
		leave.ErrInvalidState:       http.StatusConflict,
		leave.ErrNotFound:           http.StatusNotFound,
		leave.ErrForbidden:          http.StatusForbidden,
	}
	for err, status := range cases {
		rec := do(t, newRouter(&fakeService{approveErr: err}), http.MethodPost, "/leave/requests/"+requestID+"/approve", "")
		assert.Equal(t, status, rec.Code, err.Error())
	}

	rec := do(t, newRouter(&fakeService{}), http.MethodPost, "/leave/requests/"+requestID+"/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), leave.StatusApproved)
}

func TestRejectPassesReason(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodPost, "/leave/requests/"+requestID+"/reject", `{"reason":"coverage"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "coverage", svc.rejected)

	rec = do(t, newRouter(svc), http.MethodPost, "/leave/requests/"+requestID+"/reject", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", svc.rejected)
}

func TestBalancesDefaultToCaller(t *testing.T) {
	svc := &fakeService{employeeID: empID}
	rec := do(t, newRouter(svc), http.MethodGet, "/leave/balances", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, empID, svc.balancesFor)
	assert.Equal(t, 2026, svc.balanceYear)

	rec = do(t, newRouter(&fakeService{}), http.MethodGet, "/leave/balances", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, newRouter(svc), http.MethodGet, "/leave/balances?year=20x6", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRequestsFilter(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodGet, "/leave/requests?status=pending_hr&from=2026-01-01&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, leave.StatusPendingHR, svc.filter.Status)
	require.NotNil(t, svc.filter.From)
	assert.Equal(t, 5, svc.filter.Limit)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	rec = do(t, newRouter(svc), http.MethodGet, "/leave/requests?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalanceReportExports(t *testing.T) {
	rec := do(t, newRouter(&fakeService{}), http.MethodGet, "/leave/reports/balances.csv?year=2025", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "leave-balances-2025.csv")
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")

	rec = do(t, newRouter(&fakeService{}), http.MethodGet, "/leave/reports/balances.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}
