package recruitment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hrconsole/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const jobColumns = `
    SELECT j.id, j.title, COALESCE(j.description, ''), COALESCE(j.org_unit_id::text, ''), COALESCE(ou.name, ''),
           j.status, j.closing_date, j.openings, j.created_at, j.updated_at
    FROM job_openings j
    LEFT JOIN org_units ou ON ou.id = j.org_unit_id`

func scanJob(row interface{ Scan(...any) error }) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Title, &j.Description, &j.OrgUnitID, &j.OrgUnitName, &j.Status, &j.ClosingDate, &j.Openings, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func collectJobs(rows pgx.Rows) ([]Job, error) {
	defer rows.Close()
	out := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) ListJobs(ctx context.Context, tenantID, status string) ([]Job, error) {
	rows, err := s.DB.Query(ctx, jobColumns+`
    WHERE j.tenant_id = $1 AND ($2 = '' OR j.status = $2)
    ORDER BY j.created_at DESC
  `, tenantID, status)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func (s *Store) GetJob(ctx context.Context, tenantID, jobID string) (Job, error) {
	j, err := scanJob(s.DB.QueryRow(ctx, jobColumns+`
    WHERE j.tenant_id = $1 AND j.id = $2
  `, tenantID, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return j, err
}

func (s *Store) CreateJob(ctx context.Context, tenantID string, job Job) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_openings (tenant_id, title, description, org_unit_id, status, closing_date, openings)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, tenantID, job.Title, nullIfEmpty(job.Description), nullIfEmpty(job.OrgUnitID), job.Status, job.ClosingDate, job.Openings).Scan(&id)
	return id, err
}

func (s *Store) UpdateJob(ctx context.Context, tenantID string, job Job) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE job_openings
    SET title = $1, description = $2, org_unit_id = $3, status = $4, closing_date = $5, openings = $6, updated_at = now()
    WHERE tenant_id = $7 AND id = $8
  `, job.Title, nullIfEmpty(job.Description), nullIfEmpty(job.OrgUnitID), job.Status, job.ClosingDate, job.Openings, tenantID, job.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseExpired closes open jobs whose closing date is before today and
// returns them.
func (s *Store) CloseExpired(ctx context.Context, tenantID string, today time.Time) ([]Job, error) {
	rows, err := s.DB.Query(ctx, `
    UPDATE job_openings
    SET status = 'closed', updated_at = now()
    WHERE tenant_id = $1 AND status = 'open' AND closing_date IS NOT NULL AND closing_date < $2
    RETURNING id, title, COALESCE(description, ''), COALESCE(org_unit_id::text, ''), '', status, closing_date, openings, created_at, updated_at
  `, tenantID, today)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func (s *Store) ListStages(ctx context.Context, tenantID string) ([]Stage, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, sort_order, COALESCE(outcome, '')
    FROM pipeline_stages
    WHERE tenant_id = $1
    ORDER BY sort_order, name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Stage{}
	for rows.Next() {
		var st Stage
		if err := rows.Scan(&st.ID, &st.Name, &st.SortOrder, &st.Outcome); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) CreateStage(ctx context.Context, tenantID string, stage Stage) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO pipeline_stages (tenant_id, name, sort_order, outcome)
    VALUES ($1, $2, COALESCE((SELECT MAX(sort_order) FROM pipeline_stages WHERE tenant_id = $1), 0) + 10, $3)
    RETURNING id
  `, tenantID, stage.Name, nullIfEmpty(stage.Outcome)).Scan(&id)
	return id, err
}

func (s *Store) UpdateStageOrders(ctx context.Context, tenantID string, orders map[string]int) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for id, order := range orders {
		if _, err := tx.Exec(ctx, `
    UPDATE pipeline_stages SET sort_order = $1 WHERE tenant_id = $2 AND id = $3
  `, order, tenantID, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const candidateColumns = `
    SELECT c.id, c.job_id, j.title, c.first_name, COALESCE(c.last_name, ''), c.email, COALESCE(c.phone, ''),
           COALESCE(c.source, ''), COALESCE(c.notes, ''), c.stage_id, st.name, c.position,
           COALESCE(c.employee_id::text, ''), c.created_at, c.updated_at
    FROM candidates c
    JOIN job_openings j ON j.id = c.job_id
    JOIN pipeline_stages st ON st.id = c.stage_id`

func scanCandidate(row interface{ Scan(...any) error }) (Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.JobID, &c.JobTitle, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Source, &c.Notes, &c.StageID, &c.StageName, &c.Position, &c.EmployeeID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func listCandidates(ctx context.Context, db querier.Querier, tenantID, jobID string) ([]Candidate, error) {
	rows, err := db.Query(ctx, candidateColumns+`
    WHERE c.tenant_id = $1 AND ($2 = '' OR c.job_id::text = $2)
    ORDER BY st.sort_order, c.position, c.created_at
  `, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListCandidates(ctx context.Context, tenantID, jobID string) ([]Candidate, error) {
	return listCandidates(ctx, s.DB, tenantID, jobID)
}

func (s *Store) GetCandidate(ctx context.Context, tenantID, candidateID string) (Candidate, error) {
	c, err := scanCandidate(s.DB.QueryRow(ctx, candidateColumns+`
    WHERE c.tenant_id = $1 AND c.id = $2
  `, tenantID, candidateID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	return c, err
}

// CreateCandidate appends the candidate to the end of its stage column and
// records the entry in the stage history.
func (s *Store) CreateCandidate(ctx context.Context, tenantID string, c Candidate, actorUserID string) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
    SELECT id FROM job_openings WHERE tenant_id = $1 AND id = $2 FOR UPDATE
  `, tenantID, c.JobID); err != nil {
		return "", err
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO candidates (tenant_id, job_id, first_name, last_name, email, phone, source, notes, stage_id, position)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,
      (SELECT COUNT(*) FROM candidates WHERE tenant_id = $1 AND job_id = $2 AND stage_id = $9))
    RETURNING id
  `, tenantID, c.JobID, c.FirstName, nullIfEmpty(c.LastName), c.Email, nullIfEmpty(c.Phone),
		nullIfEmpty(c.Source), nullIfEmpty(c.Notes), c.StageID).Scan(&id); err != nil {
		return "", err
	}
	if err := insertHistory(ctx, tx, tenantID, id, "", c.StageID, actorUserID); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateCandidate(ctx context.Context, tenantID string, c Candidate) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE candidates
    SET first_name = $1, last_name = $2, email = $3, phone = $4, source = $5, notes = $6, updated_at = now()
    WHERE tenant_id = $7 AND id = $8
  `, c.FirstName, nullIfEmpty(c.LastName), c.Email, nullIfEmpty(c.Phone), nullIfEmpty(c.Source), nullIfEmpty(c.Notes), tenantID, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveCandidates locks the job, hands its board to fn and writes back every
// candidate whose stage or position changed. A stage change also writes a
// history row.
func (s *Store) MoveCandidates(ctx context.Context, tenantID, jobID, actorUserID string, fn MoveFunc) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	job, err := scanJob(tx.QueryRow(ctx, jobColumns+`
    WHERE j.tenant_id = $1 AND j.id = $2
    FOR UPDATE OF j
  `, tenantID, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	stages, err := (&Store{DB: tx}).ListStages(ctx, tenantID)
	if err != nil {
		return err
	}
	candidates, err := listCandidates(ctx, tx, tenantID, jobID)
	if err != nil {
		return err
	}

	next, err := fn(job, BuildBoard(stages, candidates))
	if err != nil {
		return err
	}

	current := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		current[c.ID] = c
	}
	for stageID, ids := range next {
		for position, id := range ids {
			c, ok := current[id]
			if !ok || (c.StageID == stageID && c.Position == position) {
				continue
			}
			if _, err := tx.Exec(ctx, `
    UPDATE candidates SET stage_id = $1, position = $2, updated_at = now()
    WHERE tenant_id = $3 AND id = $4
  `, stageID, position, tenantID, id); err != nil {
				return err
			}
			if c.StageID != stageID {
				if err := insertHistory(ctx, tx, tenantID, id, c.StageID, stageID, actorUserID); err != nil {
					return err
				}
			}
		}
	}
	return tx.Commit(ctx)
}

func insertHistory(ctx context.Context, db querier.Querier, tenantID, candidateID, fromStageID, toStageID, actorUserID string) error {
	_, err := db.Exec(ctx, `
    INSERT INTO candidate_stage_history (tenant_id, candidate_id, from_stage_id, to_stage_id, moved_by)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, candidateID, nullIfEmpty(fromStageID), toStageID, nullIfEmpty(actorUserID))
	return err
}

func (s *Store) History(ctx context.Context, tenantID, candidateID string) ([]StageChange, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT h.id, h.candidate_id, COALESCE(h.from_stage_id::text, ''), COALESCE(fs.name, ''),
           h.to_stage_id, ts.name, COALESCE(h.moved_by::text, ''), h.moved_at
    FROM candidate_stage_history h
    LEFT JOIN pipeline_stages fs ON fs.id = h.from_stage_id
    JOIN pipeline_stages ts ON ts.id = h.to_stage_id
    WHERE h.tenant_id = $1 AND h.candidate_id = $2
    ORDER BY h.moved_at, h.id
  `, tenantID, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StageChange{}
	for rows.Next() {
		var h StageChange
		if err := rows.Scan(&h.ID, &h.CandidateID, &h.FromStageID, &h.FromStageName, &h.ToStageID, &h.ToStageName, &h.MovedBy, &h.MovedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// LinkEmployee locks the candidate and, unless it already points at an
// employee, calls create and stores the returned employee id. The bool
// reports whether create ran.
func (s *Store) LinkEmployee(ctx context.Context, tenantID, candidateID string, create func(Candidate) (string, error)) (Candidate, bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Candidate{}, false, err
	}
	defer tx.Rollback(ctx)

	c, err := scanCandidate(tx.QueryRow(ctx, candidateColumns+`
    WHERE c.tenant_id = $1 AND c.id = $2
    FOR UPDATE OF c
  `, tenantID, candidateID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, false, ErrNotFound
	}
	if err != nil {
		return Candidate{}, false, err
	}
	if c.EmployeeID != "" {
		return c, false, nil
	}

	employeeID, err := create(c)
	if err != nil {
		return Candidate{}, false, err
	}
	if _, err := tx.Exec(ctx, `
    UPDATE candidates SET employee_id = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3
  `, employeeID, tenantID, candidateID); err != nil {
		return Candidate{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Candidate{}, false, err
	}
	c.EmployeeID = employeeID
	return c, true, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
