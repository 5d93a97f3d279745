package orghandler

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
	"hrconsole/internal/domain/org"
	"hrconsole/internal/transport/http/middleware"
)

const (
	unitID   = "a3e8f7c2-1d4b-4c6a-9e2f-000000000001"
	parentID = "a3e8f7c2-1d4b-4c6a-9e2f-000000000002"
)

type fakeOrg struct {
	OrgService
	created org.UnitInput
	moveErr error
	delErr  error
	movedTo string
}

func (f *fakeOrg) Create(_ context.Context, _ string, input org.UnitInput) (org.OrgUnit, error) {
	f.created = input
	return org.OrgUnit{ID: unitID, Name: input.Name, Kind: input.Kind}, nil
}

func (f *fakeOrg) Move(_ context.Context, _, id, parent string) (org.OrgUnit, org.OrgUnit, error) {
	if f.moveErr != nil {
		return org.OrgUnit{}, org.OrgUnit{}, f.moveErr
	}
	f.movedTo = parent
	return org.OrgUnit{ID: id}, org.OrgUnit{ID: id, ParentID: parent}, nil
}

func (f *fakeOrg) Delete(context.Context, string, string) (org.OrgUnit, error) {
	return org.OrgUnit{}, f.delErr
}

func (f *fakeOrg) Chart(_ context.Context, _, root string) ([]*org.ChartNode, error) {
	if root != "" {
		return nil, org.ErrNotFound
	}
	return nil, nil
}

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

func newRouter(svc *fakeOrg) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: auth.RoleHR})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	NewHandler(svc, allowAll{}, nil).RegisterRoutes(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestCreateUnitNormalizesKind(t *testing.T) {
	svc := &fakeOrg{}
	rec := do(newRouter(svc), http.MethodPost, "/org/units", `{"name":" Platform ","kind":"Team","parentId":"`+parentID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, org.KindTeam, svc.created.Kind)
	assert.Equal(t, "Platform", svc.created.Name)
}

func TestCreateUnitRejectsUnknownKind(t *testing.T) {
	rec := do(newRouter(&fakeOrg{}), http.MethodPost, "/org/units", `{"name":"Guild","kind":"guild"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoveMapsCycle(t *testing.T) {
	rec := do(newRouter(&fakeOrg{moveErr: org.ErrCycle}), http.MethodPost, "/org/units/"+unitID+"/move", `{"parentId":"`+parentID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "org_cycle")

	svc := &fakeOrg{}
	rec = do(newRouter(svc), http.MethodPost, "/org/units/"+unitID+"/move", `{"parentId":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", svc.movedTo)
}

func TestDeleteInUse(t *testing.T) {
	rec := do(newRouter(&fakeOrg{delErr: org.ErrInUse}), http.MethodDelete, "/org/units/"+unitID, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestChart(t *testing.T) {
	rec := do(newRouter(&fakeOrg{}), http.MethodGet, "/org/chart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	rec = do(newRouter(&fakeOrg{}), http.MethodGet, "/org/chart?rootEmployeeId="+unitID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
