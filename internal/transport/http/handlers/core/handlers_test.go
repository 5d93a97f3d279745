package corehandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/core"
	"hrconsole/internal/transport/http/middleware"
)

const (
	empID     = "6f1c1c1e-8f43-4b38-9f0e-1d2f6b4a0001"
	managerID = "6f1c1c1e-8f43-4b38-9f0e-1d2f6b4a0002"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeService struct {
	created  core.Employee
	updated  core.Employee
	getErr   error
	updErr   error
	listed   core.EmployeeFilter
	exported int
}

func (f *fakeService) Viewer(_ context.Context, user auth.UserContext) (core.Viewer, error) {
	return core.Viewer{User: user, EmployeeID: empID}, nil
}

func (f *fakeService) Me(context.Context, core.Viewer) (*core.Employee, error) {
	return &core.Employee{ID: empID, FirstName: "Ada"}, nil
}

func (f *fakeService) List(_ context.Context, _ core.Viewer, filter core.EmployeeFilter) ([]core.Employee, int, error) {
	f.listed = filter
	return []core.Employee{{ID: empID}}, 7, nil
}

func (f *fakeService) Export(context.Context, core.Viewer, core.EmployeeFilter) ([]core.Employee, error) {
	f.exported++
	return []core.Employee{{ID: empID, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}}, nil
}

func (f *fakeService) Get(context.Context, core.Viewer, string, string) (*core.Employee, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &core.Employee{ID: empID}, nil
}

func (f *fakeService) Create(_ context.Context, _ string, emp core.Employee, _ *core.LoginInput) (*core.Employee, error) {
	f.created = emp
	emp.ID = empID
	return &emp, nil
}

func (f *fakeService) Update(_ context.Context, _ string, emp core.Employee) (*core.Employee, *core.Employee, error) {
	if f.updErr != nil {
		return nil, nil, f.updErr
	}
	f.updated = emp
	return &core.Employee{ID: emp.ID}, &emp, nil
}

func (f *fakeService) EmergencyContacts(context.Context, core.Viewer, string) ([]core.EmergencyContact, error) {
	return nil, nil
}

func (f *fakeService) ReplaceEmergencyContacts(_ context.Context, _ core.Viewer, _ string, contacts []core.EmergencyContact) ([]core.EmergencyContact, error) {
	return contacts, nil
}

func (f *fakeService) ManagerHistory(context.Context, core.Viewer, string) ([]core.ManagerHistoryEntry, error) {
	return nil, nil
}

func newRouter(svc *fakeService) http.Handler {
	h := NewHandler(svc, allowAll{}, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: auth.RoleHR})
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

func TestListParsesFilter(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodGet, "/employees/?q=ada&orgUnitId=a,b&orgUnitId=c&sort=-startDate&limit=900", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, []string{"a", "b", "c"}, svc.listed.OrgUnitIDs)
	assert.Equal(t, "-startDate", svc.listed.Sort)
	assert.Equal(t, 500, svc.listed.Limit)
}

func TestCreateValidatesPayload(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodPost, "/employees/", `{"firstName":"","email":"nope","status":"retired","managerId":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Details struct {
				Fields []struct{ Field string } `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	var fields []string
	for _, f := range body.Error.Details.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"email", "firstName", "managerId", "status"}, fields)
}

func TestCreateEmployee(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodPost, "/employees/", `{"firstName":" Ada ","lastName":"Lovelace","email":"ADA@example.com","startDate":"2025-01-06","managerId":"`+managerID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, managerID, svc.created.ManagerID)
	require.NotNil(t, svc.created.StartDate)
	assert.Equal(t, 6, svc.created.StartDate.Day())
}

func TestUpdateMapsReportingCycle(t *testing.T) {
	svc := &fakeService{updErr: core.ErrReportingCycle}
	rec := do(t, newRouter(svc), http.MethodPut, "/employees/"+empID+"/", `{"firstName":"Ada","email":"ada@example.com","managerId":"`+managerID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "reporting_cycle")
}

func TestGetMapsScopeErrors(t *testing.T) {
	rec := do(t, newRouter(&fakeService{getErr: core.ErrForbidden}), http.MethodGet, "/employees/"+empID+"/", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, newRouter(&fakeService{}), http.MethodGet, "/employees/not-an-id/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSV(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodGet, "/employees/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "ada@example.com")
	assert.Equal(t, 1, svc.exported)
}

func TestExportPDF(t *testing.T) {
	rec := do(t, newRouter(&fakeService{}), http.MethodGet, "/employees/export.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}
