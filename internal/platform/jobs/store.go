package jobs

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"hrconsole/internal/platform/querier"
)

// Outcome is how a run ended. Err, when set, is stored next to Details under
// the "error" key.
type Outcome struct {
	Status  string
	Details any
	Err     error
}

// RunStore persists job_runs rows and enumerates tenants to schedule for.
type RunStore interface {
	Start(ctx context.Context, tenantID, jobType string) (string, error)
	Finish(ctx context.Context, runID string, out Outcome) error
	Tenants(ctx context.Context) ([]string, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Start(ctx context.Context, tenantID, jobType string) (string, error) {
	var runID string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status) VALUES ($1, $2, $3) RETURNING id::text
  `, tenantID, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (s *Store) Finish(ctx context.Context, runID string, out Outcome) error {
	details, err := json.Marshal(out.Details)
	if err != nil || string(details) == "null" {
		details = []byte("{}")
	}
	var reason *string
	if out.Err != nil {
		msg := out.Err.Error()
		reason = &msg
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $2,
        details_json = $3::jsonb || jsonb_strip_nulls(jsonb_build_object('error', $4::text)),
        completed_at = now()
    WHERE id = $1
  `, runID, out.Status, details, reason)
	return err
}

func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
