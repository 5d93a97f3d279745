package reports

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hrconsole/internal/platform/querier"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// EmployeeIDByUserID returns "" when the user has no employee record.
func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, "SELECT id::text FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return employeeID, err
}

// one runs a single-row summary query and maps its columns onto T by name.
func one[T any](ctx context.Context, db querier.Querier, query string, args ...any) (T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
}

func (s *Store) EmployeeSummary(ctx context.Context, tenantID, userID, employeeID string) (EmployeeSummary, error) {
	out, err := one[EmployeeSummary](ctx, s.DB, `
    SELECT
      (SELECT COUNT(*) FROM leave_requests
        WHERE tenant_id = $1 AND employee_id = $2 AND status IN ('pending', 'pending_hr'))::int AS open_leave_requests,
      EXISTS (SELECT 1 FROM attendance_records
        WHERE tenant_id = $1 AND employee_id = $2 AND clock_out IS NULL) AS clocked_in,
      (SELECT COUNT(*) FROM notifications
        WHERE tenant_id = $1 AND user_id = $3 AND read_at IS NULL)::int AS unread_notifications
  `, tenantID, employeeID, userID)
	out.EmployeeID = employeeID
	return out, err
}

func (s *Store) TeamSummary(ctx context.Context, tenantID, managerEmployeeID string, today time.Time) (TeamSummary, error) {
	return one[TeamSummary](ctx, s.DB, `
    WITH team AS (
      SELECT id FROM employees WHERE tenant_id = $1 AND manager_id = $2 AND status <> 'terminated'
    )
    SELECT
      (SELECT COUNT(*) FROM team)::int AS direct_reports,
      (SELECT COUNT(*) FROM leave_requests r
        WHERE r.tenant_id = $1 AND r.status = 'pending' AND r.employee_id IN (SELECT id FROM team))::int AS pending_approvals,
      (SELECT COUNT(DISTINCT r.employee_id) FROM leave_requests r
        WHERE r.tenant_id = $1 AND r.status = 'approved' AND $3::date BETWEEN r.start_date AND r.end_date
          AND r.employee_id IN (SELECT id FROM team))::int AS on_leave_today
  `, tenantID, managerEmployeeID, today)
}

func (s *Store) HRSummary(ctx context.Context, tenantID string) (HRSummary, error) {
	return one[HRSummary](ctx, s.DB, `
    SELECT
      (SELECT COUNT(*) FROM employees WHERE tenant_id = $1 AND status <> 'terminated')::int AS headcount,
      (SELECT COUNT(*) FROM leave_requests WHERE tenant_id = $1 AND status = 'pending_hr')::int AS awaiting_hr,
      (SELECT COUNT(*) FROM job_openings WHERE tenant_id = $1 AND status = 'open')::int AS open_jobs,
      (SELECT COUNT(*) FROM candidates c JOIN pipeline_stages st ON st.id = c.stage_id
        WHERE c.tenant_id = $1 AND st.outcome IS NULL)::int AS active_candidates
  `, tenantID)
}

// jobRunWhere matches the filter with fixed placeholders $1..$5; empty
// fields match everything.
const jobRunWhere = `
    FROM job_runs
    WHERE tenant_id = $1
      AND ($2::text = '' OR job_type = $2)
      AND ($3::text = '' OR status = $3)
      AND ($4::timestamptz IS NULL OR started_at >= $4)
      AND ($5::timestamptz IS NULL OR started_at <= $5)`

func jobRunArgs(tenantID string, f JobRunFilter) []any {
	bound := func(t *time.Time) any {
		if t == nil || t.IsZero() {
			return nil
		}
		return *t
	}
	return []any{tenantID, strings.TrimSpace(f.JobType), strings.TrimSpace(f.Status), bound(f.StartedFrom), bound(f.StartedTo)}
}

const jobRunColumns = `SELECT id::text AS id, job_type, status, COALESCE(details_json, '{}'::jsonb) AS details, started_at, completed_at`

func (s *Store) ListJobRuns(ctx context.Context, tenantID string, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	args := append(jobRunArgs(tenantID, filter), limit, offset)
	rows, err := s.DB.Query(ctx, jobRunColumns+jobRunWhere+`
    ORDER BY started_at DESC
    LIMIT $6 OFFSET $7`, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[JobRun])
}

func (s *Store) CountJobRuns(ctx context.Context, tenantID string, filter JobRunFilter) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(*)"+jobRunWhere, jobRunArgs(tenantID, filter)...).Scan(&n)
	return n, err
}

func (s *Store) JobRunByID(ctx context.Context, tenantID, runID string) (JobRun, error) {
	rows, err := s.DB.Query(ctx, jobRunColumns+`
    FROM job_runs WHERE tenant_id = $1 AND id = $2`, tenantID, runID)
	if err != nil {
		return JobRun{}, err
	}
	run, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[JobRun])
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRun{}, ErrNotFound
	}
	return run, err
}
