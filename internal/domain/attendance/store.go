package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrconsole/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeByUser(ctx context.Context, tenantID, userID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2
  `, tenantID, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoEmployee
	}
	return id, err
}

func (s *Store) ManagerOf(ctx context.Context, tenantID, employeeID string) (string, error) {
	var managerID *string
	err := s.DB.QueryRow(ctx, `
    SELECT manager_id FROM employees WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID).Scan(&managerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil || managerID == nil {
		return "", err
	}
	return *managerID, nil
}

const recordColumns = `
    SELECT id, employee_id, work_date, clock_in, clock_out, COALESCE(note, ''), created_at
    FROM attendance_records`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.EmployeeID, &r.WorkDate, &r.ClockIn, &r.ClockOut, &r.Note, &r.CreatedAt)
	return r, err
}

// ClockIn inserts an open record. The partial unique index on open records
// turns a concurrent second clock-in into ErrAlreadyClockedIn.
func (s *Store) ClockIn(ctx context.Context, tenantID, employeeID string, at time.Time, note string) (Record, error) {
	r, err := scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (tenant_id, employee_id, work_date, clock_in, note)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, employee_id, work_date, clock_in, clock_out, COALESCE(note, ''), created_at
  `, tenantID, employeeID, dateOnly(at), at, nullIfEmpty(note)))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Record{}, ErrAlreadyClockedIn
	}
	return r, err
}

func (s *Store) ClockOut(ctx context.Context, tenantID, employeeID string, at time.Time, note string) (Record, error) {
	r, err := scanRecord(s.DB.QueryRow(ctx, `
    UPDATE attendance_records
    SET clock_out = $3, note = COALESCE($4, note)
    WHERE tenant_id = $1 AND employee_id = $2 AND clock_out IS NULL
    RETURNING id, employee_id, work_date, clock_in, clock_out, COALESCE(note, ''), created_at
  `, tenantID, employeeID, at, nullIfEmpty(note)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotClockedIn
	}
	return r, err
}

func (s *Store) List(ctx context.Context, tenantID string, filter Filter) ([]Record, int, error) {
	where := `
    WHERE tenant_id = $1
      AND ($2 = '' OR employee_id::text = $2)
      AND work_date BETWEEN $3 AND $4`
	args := []any{tenantID, filter.EmployeeID, dateOnly(filter.From), dateOnly(filter.To)}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, recordColumns+where+`
    ORDER BY work_date DESC, clock_in DESC
    LIMIT $5 OFFSET $6
  `, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
