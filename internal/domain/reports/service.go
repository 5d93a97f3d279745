package reports

import (
	"context"
	"time"

	"hrconsole/internal/domain/auth"
)

type StoreAPI interface {
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
	EmployeeSummary(ctx context.Context, tenantID, userID, employeeID string) (EmployeeSummary, error)
	TeamSummary(ctx context.Context, tenantID, managerEmployeeID string, today time.Time) (TeamSummary, error)
	HRSummary(ctx context.Context, tenantID string) (HRSummary, error)
	ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, tenantID, runID string) (JobRun, error)
}

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

// Dashboard assembles the sections user qualifies for: their own summary
// when they have an employee record, a team summary when someone reports to
// them, and tenant-wide figures for HR.
func (s *Service) Dashboard(ctx context.Context, user auth.UserContext) (Dashboard, error) {
	var out Dashboard
	employeeID, err := s.Store.EmployeeIDByUserID(ctx, user.TenantID, user.UserID)
	if err != nil {
		return out, err
	}
	if employeeID != "" {
		summary, err := s.Store.EmployeeSummary(ctx, user.TenantID, user.UserID, employeeID)
		if err != nil {
			return out, err
		}
		out.Employee = &summary

		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		t := now().UTC()
		team, err := s.Store.TeamSummary(ctx, user.TenantID, employeeID, time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
		if err != nil {
			return out, err
		}
		if team.DirectReports > 0 {
			out.Team = &team
		}
	}
	if auth.IsHR(user.RoleName) {
		hr, err := s.Store.HRSummary(ctx, user.TenantID)
		if err != nil {
			return out, err
		}
		out.HR = &hr
	}
	return out, nil
}

func (s *Service) JobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	total, err := s.Store.CountJobRuns(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.Store.ListJobRuns(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) JobRun(ctx context.Context, tenantID, runID string) (JobRun, error) {
	return s.Store.JobRunByID(ctx, tenantID, runID)
}
