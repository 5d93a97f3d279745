package recruitment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/core"
	"hrconsole/internal/domain/notifications"
)

// EmployeeCreator is satisfied by core.Service.
type EmployeeCreator interface {
	Create(ctx context.Context, tenantID string, emp core.Employee, login *core.LoginInput) (*core.Employee, error)
}

type Notifier interface {
	NotifyRoles(ctx context.Context, tenantID, except, ntype, title, body string, roleNames ...string) error
}

type Service struct {
	Store     StoreAPI
	Employees EmployeeCreator
	Notify    Notifier
	Now       func() time.Time
}

func NewService(store StoreAPI, employees EmployeeCreator, notify Notifier) *Service {
	return &Service{Store: store, Employees: employees, Notify: notify, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

type JobInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OrgUnitID   string     `json:"orgUnitId"`
	Status      string     `json:"status"`
	ClosingDate *time.Time `json:"closingDate"`
	Openings    int        `json:"openings"`
}

func (in JobInput) apply(job *Job) error {
	job.Title = strings.TrimSpace(in.Title)
	job.Description = strings.TrimSpace(in.Description)
	job.OrgUnitID = in.OrgUnitID
	job.ClosingDate = in.ClosingDate
	job.Openings = in.Openings
	if job.Openings <= 0 {
		job.Openings = 1
	}
	status := in.Status
	if status == "" {
		status = JobDraft
	}
	if !ValidJobStatus(status) {
		return ErrInvalidStatus
	}
	job.Status = status
	return nil
}

func (s *Service) ListJobs(ctx context.Context, tenantID, status string) ([]Job, error) {
	if status != "" && !ValidJobStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.Store.ListJobs(ctx, tenantID, status)
}

func (s *Service) GetJob(ctx context.Context, tenantID, jobID string) (Job, error) {
	return s.Store.GetJob(ctx, tenantID, jobID)
}

func (s *Service) CreateJob(ctx context.Context, tenantID string, in JobInput) (Job, error) {
	var job Job
	if err := in.apply(&job); err != nil {
		return Job{}, err
	}
	id, err := s.Store.CreateJob(ctx, tenantID, job)
	if err != nil {
		return Job{}, err
	}
	return s.Store.GetJob(ctx, tenantID, id)
}

func (s *Service) UpdateJob(ctx context.Context, tenantID, jobID string, in JobInput) (Job, Job, error) {
	before, err := s.Store.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return Job{}, Job{}, err
	}
	job := before
	if err := in.apply(&job); err != nil {
		return Job{}, Job{}, err
	}
	if err := s.Store.UpdateJob(ctx, tenantID, job); err != nil {
		return Job{}, Job{}, err
	}
	after, err := s.Store.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return Job{}, Job{}, err
	}
	return before, after, nil
}

// CloseExpired closes open jobs past their closing date and tells HR.
func (s *Service) CloseExpired(ctx context.Context, tenantID string) ([]Job, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	closed, err := s.Store.CloseExpired(ctx, tenantID, today)
	if err != nil {
		return nil, err
	}
	for _, j := range closed {
		s.notify(ctx, tenantID, "", notifications.TypeJobClosed, "Job opening closed",
			fmt.Sprintf("%s closed after its closing date", j.Title))
	}
	return closed, nil
}

func (s *Service) ListStages(ctx context.Context, tenantID string) ([]Stage, error) {
	return s.Store.ListStages(ctx, tenantID)
}

func (s *Service) CreateStage(ctx context.Context, tenantID string, stage Stage) (Stage, error) {
	stage.Name = strings.TrimSpace(stage.Name)
	if stage.Outcome != "" && stage.Outcome != OutcomeHired && stage.Outcome != OutcomeRejected {
		return Stage{}, fmt.Errorf("%w: outcome must be hired or rejected", ErrUnknownStage)
	}
	id, err := s.Store.CreateStage(ctx, tenantID, stage)
	if err != nil {
		return Stage{}, err
	}
	stage.ID = id
	return stage, nil
}

func (s *Service) ReorderStages(ctx context.Context, tenantID string, orderedIDs []string) ([]Stage, error) {
	stages, err := s.Store.ListStages(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	orders, err := ReorderStages(stages, orderedIDs)
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpdateStageOrders(ctx, tenantID, orders); err != nil {
		return nil, err
	}
	return s.Store.ListStages(ctx, tenantID)
}

func (s *Service) ListCandidates(ctx context.Context, tenantID, jobID string) ([]Candidate, error) {
	return s.Store.ListCandidates(ctx, tenantID, jobID)
}

func (s *Service) GetCandidate(ctx context.Context, tenantID, candidateID string) (Candidate, error) {
	return s.Store.GetCandidate(ctx, tenantID, candidateID)
}

type CandidateInput struct {
	JobID     string `json:"jobId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
	Notes     string `json:"notes"`
}

func (in CandidateInput) apply(c *Candidate) {
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.Phone = strings.TrimSpace(in.Phone)
	c.Source = strings.TrimSpace(in.Source)
	c.Notes = strings.TrimSpace(in.Notes)
}

// CreateCandidate places a new candidate in the first pipeline stage of an
// open job.
func (s *Service) CreateCandidate(ctx context.Context, tenantID, actorUserID string, in CandidateInput) (Candidate, error) {
	job, err := s.Store.GetJob(ctx, tenantID, in.JobID)
	if err != nil {
		return Candidate{}, err
	}
	if job.Status != JobOpen {
		return Candidate{}, ErrJobClosed
	}
	stages, err := s.Store.ListStages(ctx, tenantID)
	if err != nil {
		return Candidate{}, err
	}
	if len(stages) == 0 {
		return Candidate{}, ErrUnknownStage
	}
	c := Candidate{JobID: job.ID, StageID: stages[0].ID}
	in.apply(&c)
	id, err := s.Store.CreateCandidate(ctx, tenantID, c, actorUserID)
	if err != nil {
		return Candidate{}, err
	}
	return s.Store.GetCandidate(ctx, tenantID, id)
}

func (s *Service) UpdateCandidate(ctx context.Context, tenantID, candidateID string, in CandidateInput) (Candidate, Candidate, error) {
	before, err := s.Store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, Candidate{}, err
	}
	c := before
	in.apply(&c)
	if err := s.Store.UpdateCandidate(ctx, tenantID, c); err != nil {
		return Candidate{}, Candidate{}, err
	}
	after, err := s.Store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, Candidate{}, err
	}
	return before, after, nil
}

// Board returns a job's kanban columns in stage order.
func (s *Service) Board(ctx context.Context, tenantID, jobID string) ([]Column, error) {
	if _, err := s.Store.GetJob(ctx, tenantID, jobID); err != nil {
		return nil, err
	}
	stages, err := s.Store.ListStages(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.Store.ListCandidates(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	board := BuildBoard(stages, candidates)
	columns := make([]Column, 0, len(stages))
	for _, st := range stages {
		col := Column{Stage: st, Candidates: []Candidate{}}
		for i, id := range board[st.ID] {
			c := byID[id]
			c.Position = i
			col.Candidates = append(col.Candidates, c)
		}
		columns = append(columns, col)
	}
	return columns, nil
}

type MoveInput struct {
	StageID  string `json:"stageId"`
	Position int    `json:"position"`
}

// Move repositions a candidate on its job's board. Closed jobs are frozen.
func (s *Service) Move(ctx context.Context, tenantID, actorUserID, candidateID string, in MoveInput) (Candidate, Candidate, error) {
	before, err := s.Store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, Candidate{}, err
	}
	err = s.Store.MoveCandidates(ctx, tenantID, before.JobID, actorUserID, func(job Job, board Board) (Board, error) {
		if job.Status == JobClosed {
			return nil, ErrJobClosed
		}
		next, _, err := MoveCandidate(board, candidateID, in.StageID, in.Position)
		return next, err
	})
	if err != nil {
		return Candidate{}, Candidate{}, err
	}
	after, err := s.Store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, Candidate{}, err
	}
	if after.StageID != before.StageID {
		s.notify(ctx, tenantID, actorUserID, notifications.TypeCandidateMoved, "Candidate moved",
			fmt.Sprintf("%s moved from %s to %s for %s", after.FullName(), before.StageName, after.StageName, after.JobTitle))
	}
	return before, after, nil
}

func (s *Service) History(ctx context.Context, tenantID, candidateID string) ([]StageChange, error) {
	if _, err := s.Store.GetCandidate(ctx, tenantID, candidateID); err != nil {
		return nil, err
	}
	return s.Store.History(ctx, tenantID, candidateID)
}

type HireInput struct {
	StartDate *time.Time `json:"startDate"`
	ManagerID string     `json:"managerId"`
	JobTitle  string     `json:"jobTitle"`
}

// Hire moves the candidate into the hired stage and creates an employee
// from it. Hiring an already hired candidate returns it unchanged with
// created false.
func (s *Service) Hire(ctx context.Context, tenantID, actorUserID, candidateID string, in HireInput) (Candidate, bool, error) {
	c, err := s.Store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, false, err
	}
	if c.EmployeeID != "" {
		return c, false, nil
	}
	stages, err := s.Store.ListStages(ctx, tenantID)
	if err != nil {
		return Candidate{}, false, err
	}
	hired, ok := HiredStage(stages)
	if !ok {
		return Candidate{}, false, ErrNoHiredStage
	}
	if c.StageID != hired.ID {
		if _, _, err := s.Move(ctx, tenantID, actorUserID, candidateID, MoveInput{StageID: hired.ID, Position: 1 << 30}); err != nil {
			return Candidate{}, false, err
		}
	}
	job, err := s.Store.GetJob(ctx, tenantID, c.JobID)
	if err != nil {
		return Candidate{}, false, err
	}

	linked, created, err := s.Store.LinkEmployee(ctx, tenantID, candidateID, func(c Candidate) (string, error) {
		title := strings.TrimSpace(in.JobTitle)
		if title == "" {
			title = job.Title
		}
		start := in.StartDate
		if start == nil {
			today := s.now()
			start = &today
		}
		emp, err := s.Employees.Create(ctx, tenantID, core.Employee{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
			JobTitle:  title,
			OrgUnitID: job.OrgUnitID,
			ManagerID: in.ManagerID,
			StartDate: start,
		}, nil)
		if err != nil {
			return "", err
		}
		return emp.ID, nil
	})
	if err != nil {
		return Candidate{}, false, err
	}
	if created {
		s.notify(ctx, tenantID, actorUserID, notifications.TypeCandidateHired, "Candidate hired",
			fmt.Sprintf("%s was hired for %s", linked.FullName(), job.Title))
	}
	out, err := s.Store.GetCandidate(ctx, tenantID, candidateID)
	if err != nil {
		return Candidate{}, false, err
	}
	return out, created, nil
}

func (s *Service) notify(ctx context.Context, tenantID, except, ntype, title, body string) {
	if s.Notify == nil {
		return
	}
	if err := s.Notify.NotifyRoles(ctx, tenantID, except, ntype, title, body, auth.RoleHR); err != nil {
		slog.Warn("recruitment notification failed", "type", ntype, "err", err)
	}
}
