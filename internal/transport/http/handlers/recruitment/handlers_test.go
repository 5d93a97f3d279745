package recruitmenthandler

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/recruitment"
	"hrconsole/internal/transport/http/middleware"
)

const (
	jobID       = "9a0e4c1d-2b3f-4a5e-8d7c-6b5a4f3e0001"
	candidateID = "9a0e4c1d-2b3f-4a5e-8d7c-6b5a4f3e0002"
	stageID     = "9a0e4c1d-2b3f-4a5e-8d7c-6b5a4f3e0003"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeService struct {
	RecruitmentService
	jobInput  recruitment.JobInput
	candInput recruitment.CandidateInput
	move      recruitment.MoveInput
	moveErr   error
	hired     bool
	hireInput recruitment.HireInput
}

func (f *fakeService) CreateJob(_ context.Context, _ string, in recruitment.JobInput) (recruitment.Job, error) {
	f.jobInput = in
	return recruitment.Job{ID: jobID, Title: in.Title, Status: in.Status}, nil
}

func (f *fakeService) CreateCandidate(_ context.Context, _, _ string, in recruitment.CandidateInput) (recruitment.Candidate, error) {
	f.candInput = in
	return recruitment.Candidate{ID: candidateID, JobID: in.JobID, FirstName: in.FirstName}, nil
}

func (f *fakeService) Move(_ context.Context, _, _, _ string, in recruitment.MoveInput) (recruitment.Candidate, recruitment.Candidate, error) {
	if f.moveErr != nil {
		return recruitment.Candidate{}, recruitment.Candidate{}, f.moveErr
	}
	f.move = in
	return recruitment.Candidate{}, recruitment.Candidate{ID: candidateID, StageID: in.StageID}, nil
}

func (f *fakeService) Board(context.Context, string, string) ([]recruitment.Column, error) {
	return []recruitment.Column{{Stage: recruitment.Stage{ID: stageID, Name: "Applied"}, Candidates: []recruitment.Candidate{}}}, nil
}

func (f *fakeService) Hire(_ context.Context, _, _, _ string, in recruitment.HireInput) (recruitment.Candidate, bool, error) {
	f.hireInput = in
	created := !f.hired
	f.hired = true
	return recruitment.Candidate{ID: candidateID, EmployeeID: "e1"}, created, nil
}

func newRouter(svc *fakeService) http.Handler {
	h := NewHandler(svc, allowAll{}, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: auth.RoleHR})
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

func TestCreateJob(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodPost, "/recruitment/jobs", `{"title":"Engineer","status":"Open","closingDate":"2026-12-01","openings":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, recruitment.JobOpen, svc.jobInput.Status)
	require.NotNil(t, svc.jobInput.ClosingDate)
	assert.Equal(t, 12, int(svc.jobInput.ClosingDate.Month()))

	rec = do(t, newRouter(svc), http.MethodPost, "/recruitment/jobs", `{"title":"","status":"paused"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCandidateValidatesEmail(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodPost, "/recruitment/candidates", `{"jobId":"`+jobID+`","firstName":"Grace","email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	rec = do(t, newRouter(svc), http.MethodPost, "/recruitment/candidates", `{"jobId":"`+jobID+`","firstName":"Grace","email":"grace@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, jobID, svc.candInput.JobID)
}

func TestMoveDefaultsToEndOfColumn(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newRouter(svc), http.MethodPost, "/recruitment/candidates/"+candidateID+"/move", `{"stageId":"`+stageID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, math.MaxInt32, svc.move.Position)

	rec = do(t, newRouter(svc), http.MethodPost, "/recruitment/candidates/"+candidateID+"/move", `{"stageId":"`+stageID+`","position":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, svc.move.Position)
}

func TestMoveOnClosedJobConflicts(t *testing.T) {
	rec := do(t, newRouter(&fakeService{moveErr: recruitment.ErrJobClosed}), http.MethodPost, "/recruitment/candidates/"+candidateID+"/move", `{"stageId":"`+stageID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "job_closed")
}

func TestBoardRequiresJobID(t *testing.T) {
	rec := do(t, newRouter(&fakeService{}), http.MethodGet, "/recruitment/board", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, newRouter(&fakeService{}), http.MethodGet, "/recruitment/board?jobId="+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"candidates":[]`)
}

func TestHireIsIdempotent(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc)
	rec := do(t, router, http.MethodPost, "/recruitment/candidates/"+candidateID+"/hire", `{"startDate":"2026-11-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, svc.hireInput.StartDate)

	rec = do(t, router, http.MethodPost, "/recruitment/candidates/"+candidateID+"/hire", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
