package recruitmenthandler

import (
	"context"
	"math"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/recruitment"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// RecruitmentService is satisfied by recruitment.Service.
type RecruitmentService interface {
	ListJobs(ctx context.Context, tenantID, status string) ([]recruitment.Job, error)
	GetJob(ctx context.Context, tenantID, jobID string) (recruitment.Job, error)
	CreateJob(ctx context.Context, tenantID string, in recruitment.JobInput) (recruitment.Job, error)
	UpdateJob(ctx context.Context, tenantID, jobID string, in recruitment.JobInput) (recruitment.Job, recruitment.Job, error)
	ListStages(ctx context.Context, tenantID string) ([]recruitment.Stage, error)
	CreateStage(ctx context.Context, tenantID string, stage recruitment.Stage) (recruitment.Stage, error)
	ReorderStages(ctx context.Context, tenantID string, orderedIDs []string) ([]recruitment.Stage, error)
	ListCandidates(ctx context.Context, tenantID, jobID string) ([]recruitment.Candidate, error)
	GetCandidate(ctx context.Context, tenantID, candidateID string) (recruitment.Candidate, error)
	CreateCandidate(ctx context.Context, tenantID, actorUserID string, in recruitment.CandidateInput) (recruitment.Candidate, error)
	UpdateCandidate(ctx context.Context, tenantID, candidateID string, in recruitment.CandidateInput) (recruitment.Candidate, recruitment.Candidate, error)
	Board(ctx context.Context, tenantID, jobID string) ([]recruitment.Column, error)
	Move(ctx context.Context, tenantID, actorUserID, candidateID string, in recruitment.MoveInput) (recruitment.Candidate, recruitment.Candidate, error)
	History(ctx context.Context, tenantID, candidateID string) ([]recruitment.StageChange, error)
	Hire(ctx context.Context, tenantID, actorUserID, candidateID string, in recruitment.HireInput) (recruitment.Candidate, bool, error)
}

type Handler struct {
	Service RecruitmentService
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service RecruitmentService, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/recruitment", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermJobsView, h.Perms)).Get("/jobs", h.handleListJobs)
		r.With(middleware.RequirePermission(auth.PermJobsCreate, h.Perms)).Post("/jobs", h.handleCreateJob)
		r.With(middleware.RequirePermission(auth.PermJobsView, h.Perms)).Get("/jobs/{jobID}", h.handleGetJob)
		r.With(middleware.RequirePermission(auth.PermJobsEdit, h.Perms)).Put("/jobs/{jobID}", h.handleUpdateJob)

		r.With(middleware.RequirePermission(auth.PermCandidatesView, h.Perms)).Get("/stages", h.handleListStages)
		r.With(middleware.RequirePermission(auth.PermJobsEdit, h.Perms)).Post("/stages", h.handleCreateStage)
		r.With(middleware.RequirePermission(auth.PermJobsEdit, h.Perms)).Post("/stages/reorder", h.handleReorderStages)

		r.With(middleware.RequirePermission(auth.PermCandidatesView, h.Perms)).Get("/board", h.handleBoard)
		r.With(middleware.RequirePermission(auth.PermCandidatesView, h.Perms)).Get("/candidates", h.handleListCandidates)
		r.With(middleware.RequirePermission(auth.PermCandidatesCreate, h.Perms)).Post("/candidates", h.handleCreateCandidate)
		r.With(middleware.RequirePermission(auth.PermCandidatesView, h.Perms)).Get("/candidates/{candidateID}", h.handleGetCandidate)
		r.With(middleware.RequirePermission(auth.PermCandidatesEdit, h.Perms)).Put("/candidates/{candidateID}", h.handleUpdateCandidate)
		r.With(middleware.RequirePermission(auth.PermCandidatesEdit, h.Perms)).Post("/candidates/{candidateID}/move", h.handleMove)
		r.With(middleware.RequirePermission(auth.PermCandidatesView, h.Perms)).Get("/candidates/{candidateID}/history", h.handleHistory)
		r.With(middleware.RequireAllPermissions(h.Perms, auth.PermCandidatesEdit, auth.PermEmployeesCreate)).Post("/candidates/{candidateID}/hire", h.handleHire)
	})
}

var recruitmentErrors = []shared.ErrorCase{
	shared.NotFound(recruitment.ErrNotFound),
	shared.Conflict(recruitment.ErrJobClosed, "job_closed"),
	shared.Conflict(recruitment.ErrStageInUse, "stage_in_use"),
	shared.Conflict(recruitment.ErrNoHiredStage, "no_hired_stage"),
	shared.BadRequest(recruitment.ErrInvalidStatus, "invalid_status"),
	shared.BadRequest(recruitment.ErrUnknownStage, "unknown_stage"),
	shared.BadRequest(recruitment.ErrNotPermutation, "invalid_order"),
}

var jobStatuses = []string{recruitment.JobDraft, recruitment.JobOpen, recruitment.JobClosed}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	v := shared.NewValidator()
	v.Enum("status", status, jobStatuses, "must be draft, open or closed")
	if v.Reject(w, requestID) {
		return
	}
	jobs, err := h.Service.ListJobs(r.Context(), user.TenantID, status)
	if err != nil {
		shared.WriteError(w, requestID, err, "jobs_list_failed", "failed to list jobs", recruitmentErrors...)
		return
	}
	if jobs == nil {
		jobs = []recruitment.Job{}
	}
	api.Success(w, jobs, requestID)
}

type jobPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrgUnitID   string `json:"orgUnitId"`
	Status      string `json:"status"`
	ClosingDate string `json:"closingDate"`
	Openings    int    `json:"openings"`
}

func (p jobPayload) input(v *shared.Validator) recruitment.JobInput {
	v.Required("title", p.Title, "is required")
	v.UUID("orgUnitId", p.OrgUnitID, false)
	v.Enum("status", p.Status, jobStatuses, "must be draft, open or closed")
	if p.Openings < 0 {
		v.Add("openings", "must not be negative")
	}
	in := recruitment.JobInput{
		Title:       p.Title,
		Description: p.Description,
		OrgUnitID:   strings.TrimSpace(p.OrgUnitID),
		Status:      strings.ToLower(strings.TrimSpace(p.Status)),
		Openings:    p.Openings,
	}
	if strings.TrimSpace(p.ClosingDate) != "" {
		if closing, ok := v.Date("closingDate", p.ClosingDate); ok {
			in.ClosingDate = &closing
		}
	}
	return in
}

func (h *Handler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload jobPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	in := payload.input(v)
	if v.Reject(w, requestID) {
		return
	}
	job, err := h.Service.CreateJob(r.Context(), user.TenantID, in)
	if err != nil {
		shared.WriteError(w, requestID, err, "job_create_failed", "failed to create job", recruitmentErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "recruitment.job.create", "job", job.ID, nil, job)
	api.Created(w, job, requestID)
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	jobID := chi.URLParam(r, "jobID")
	if !shared.ValidID(w, requestID, "jobID", jobID) {
		return
	}
	job, err := h.Service.GetJob(r.Context(), user.TenantID, jobID)
	if err != nil {
		shared.WriteError(w, requestID, err, "job_get_failed", "failed to load job", recruitmentErrors...)
		return
	}
	api.Success(w, job, requestID)
}

func (h *Handler) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	jobID := chi.URLParam(r, "jobID")
	if !shared.ValidID(w, requestID, "jobID", jobID) {
		return
	}
	var payload jobPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	in := payload.input(v)
	if v.Reject(w, requestID) {
		return
	}
	before, after, err := h.Service.UpdateJob(r.Context(), user.TenantID, jobID, in)
	if err != nil {
		shared.WriteError(w, requestID, err, "job_update_failed", "failed to update job", recruitmentErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "recruitment.job.update", "job", jobID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleListStages(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	stages, err := h.Service.ListStages(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "stages_list_failed", "failed to list stages")
		return
	}
	if stages == nil {
		stages = []recruitment.Stage{}
	}
	api.Success(w, stages, middleware.GetRequestID(r.Context()))
}

type stagePayload struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
}

func (h *Handler) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload stagePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Enum("outcome", payload.Outcome, []string{recruitment.OutcomeHired, recruitment.OutcomeRejected}, "must be hired or rejected")
	if v.Reject(w, requestID) {
		return
	}
	stage, err := h.Service.CreateStage(r.Context(), user.TenantID, recruitment.Stage{
		Name:    strings.TrimSpace(payload.Name),
		Outcome: strings.ToLower(strings.TrimSpace(payload.Outcome)),
	})
	if err != nil {
		shared.WriteError(w, requestID, err, "stage_create_failed", "failed to create stage", recruitmentErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "recruitment.stage.create", "pipeline_stage", stage.ID, nil, stage)
	api.Created(w, stage, requestID)
}

type reorderPayload struct {
	OrderedIDs []string `json:"orderedIds"`
}

func (h *Handler) handleReorderStages(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload reorderPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if len(payload.OrderedIDs) == 0 {
		v := shared.NewValidator()
		v.Add("orderedIds", "is required")
		v.Reject(w, requestID)
		return
	}
	stages, err := h.Service.ReorderStages(r.Context(), user.TenantID, payload.OrderedIDs)
	if err != nil {
		shared.WriteError(w, requestID, err, "stage_reorder_failed", "failed to reorder stages", recruitmentErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "recruitment.stage.reorder", "pipeline_stage", "", nil, payload.OrderedIDs)
	api.Success(w, stages, requestID)
}

func (h *Handler) jobParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	jobID := strings.TrimSpace(r.URL.Query().Get("jobId"))
	return jobID, shared.ValidID(w, middleware.GetRequestID(r.Context()), "jobId", jobID)
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := h.jobParam(w, r)
	if !ok {
		return
	}
	board, err := h.Service.Board(r.Context(), user.TenantID, jobID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "board_failed", "failed to load board", recruitmentErrors...)
		return
	}
	api.Success(w, board, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := h.jobParam(w, r)
	if !ok {
		return
	}
	candidates, err := h.Service.ListCandidates(r.Context(), user.TenantID, jobID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "candidates_list_failed", "failed to list candidates", recruitmentErrors...)
		return
	}
	if candidates == nil {
		candidates = []recruitment.Candidate{}
	}
	api.Success(w, candidates, middleware.GetRequestID(r.Context()))
}

type candidatePayload struct {
	JobID     string `json:"jobId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
	Notes     string `json:"notes"`
}

func (p candidatePayload) input(v *shared.Validator) recruitment.CandidateInput {
	v.Required("firstName", p.FirstName, "is required")
	v.Required("email", p.Email, "is required")
	if email := strings.TrimSpace(p.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			v.Add("email", "must be a valid email address")
		}
	}
	return recruitment.CandidateInput{
		JobID:     strings.TrimSpace(p.JobID),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		Source:    p.Source,
		Notes:     p.Notes,
	}
}

func (h *Handler) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload candidatePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("jobId", payload.JobID, true)
	in := payload.input(v)
	if v.Reject(w, requestID) {
		return
	}
	candidate, err := h.Service.CreateCandidate(r.Context(), user.TenantID, user.UserID, in)
	if err != nil {
		shared.WriteError(w, requestID, err, "candidate_create_failed", "failed to create candidate", recruitmentErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "recruitment.candidate.create", "candidate", candidate.ID, nil, candidate)
	api.Created(w, candidate, requestID)
}

func (h *Handler) candidateID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "candidateID")
	return id, shared.ValidID(w, middleware.GetRequestID(r.Context()), "candidateID", id)
}

func (h *Handler) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	candidate, err := h.Service.GetCandidate(r.Context(), user.TenantID, id)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "candidate_get_failed", "failed to load candidate", recruitmentErrors...)
		return
	}
	api.Success(w, candidate, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload candidatePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	in := payload.input(v)
	if in.JobID != "" {
		v.Add("jobId", "cannot be changed")
	}
	if v.Reject(w, requestID) {
		return
	}
	before, after, err := h.Service.UpdateCandidate(r.Context(), user.TenantID, id, in)
	if err != nil {
		shared.WriteError(w, requestID, err, "candidate_update_failed", "failed to update candidate", recruitmentErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "recruitment.candidate.update", "candidate", id, before, after)
	api.Success(w, after, requestID)
}

// movePayload.Position is the zero-based slot in the target column; omitted
// means the end of the column.
type movePayload struct {
	StageID  string `json:"stageId"`
	Position *int   `json:"position"`
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload movePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("stageId", payload.StageID, true)
	position := math.MaxInt32
	if payload.Position != nil {
		if *payload.Position < 0 {
			v.Add("position", "must not be negative")
		}
		position = *payload.Position
	}
	if v.Reject(w, requestID) {
		return
	}
	before, after, err := h.Service.Move(r.Context(), user.TenantID, user.UserID, id, recruitment.MoveInput{StageID: payload.StageID, Position: position})
	if err != nil {
		shared.WriteError(w, requestID, err, "candidate_move_failed", "failed to move candidate", recruitmentErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "recruitment.candidate.move", "candidate", id, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	history, err := h.Service.History(r.Context(), user.TenantID, id)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "candidate_history_failed", "failed to load history", recruitmentErrors...)
		return
	}
	if history == nil {
		history = []recruitment.StageChange{}
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

type hirePayload struct {
	StartDate string `json:"startDate"`
	ManagerID string `json:"managerId"`
	JobTitle  string `json:"jobTitle"`
}

func (h *Handler) handleHire(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload hirePayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("managerId", payload.ManagerID, false)
	in := recruitment.HireInput{ManagerID: strings.TrimSpace(payload.ManagerID), JobTitle: strings.TrimSpace(payload.JobTitle)}
	if strings.TrimSpace(payload.StartDate) != "" {
		var start time.Time
		if start, ok = v.Date("startDate", payload.StartDate); ok {
			in.StartDate = &start
		}
	}
	if v.Reject(w, requestID) {
		return
	}
	candidate, created, err := h.Service.Hire(r.Context(), user.TenantID, user.UserID, id, in)
	if err != nil {
		shared.WriteError(w, requestID, err, "candidate_hire_failed", "failed to hire candidate", recruitmentErrors...)
		return
	}
	if !created {
		api.Success(w, candidate, requestID)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "recruitment.candidate.hire", "candidate", id, nil, candidate)
	api.Created(w, candidate, requestID)
}
