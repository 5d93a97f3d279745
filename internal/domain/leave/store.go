package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

func (s *Store) ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, code, is_paid, requires_doc, created_at
    FROM leave_types
    WHERE tenant_id = $1
    ORDER BY name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LeaveType{}
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.Code, &t.IsPaid, &t.RequiresDoc, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateType(ctx context.Context, tenantID string, t LeaveType) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (tenant_id, name, code, is_paid, requires_doc)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, tenantID, t.Name, t.Code, t.IsPaid, t.RequiresDoc).Scan(&id)
	return id, err
}

const policyColumns = `
    SELECT id, leave_type_id, entitlement, accrual_period, carry_over_limit, allow_negative, requires_hr_approval
    FROM leave_policies`

func scanPolicy(row interface{ Scan(...any) error }) (Policy, error) {
	var p Policy
	err := row.Scan(&p.ID, &p.LeaveTypeID, &p.Entitlement, &p.AccrualPeriod, &p.CarryOverLimit, &p.AllowNegative, &p.RequiresHRApproval)
	return p, err
}

func (s *Store) ListPolicies(ctx context.Context, tenantID string) ([]Policy, error) {
	rows, err := s.DB.Query(ctx, policyColumns+`
    WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertPolicy keeps one policy per leave type.
func (s *Store) UpsertPolicy(ctx context.Context, tenantID string, p Policy) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_policies (tenant_id, leave_type_id, entitlement, accrual_period, carry_over_limit, allow_negative, requires_hr_approval)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (tenant_id, leave_type_id) DO UPDATE
    SET entitlement = EXCLUDED.entitlement,
        accrual_period = EXCLUDED.accrual_period,
        carry_over_limit = EXCLUDED.carry_over_limit,
        allow_negative = EXCLUDED.allow_negative,
        requires_hr_approval = EXCLUDED.requires_hr_approval,
        updated_at = now()
    RETURNING id
  `, tenantID, p.LeaveTypeID, p.Entitlement, p.AccrualPeriod, p.CarryOverLimit, p.AllowNegative, p.RequiresHRApproval).Scan(&id)
	return id, err
}

func (s *Store) PolicyForType(ctx context.Context, tenantID, leaveTypeID string) (Policy, error) {
	p, err := scanPolicy(s.DB.QueryRow(ctx, policyColumns+`
    WHERE tenant_id = $1 AND leave_type_id = $2
  `, tenantID, leaveTypeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Policy{}, ErrNoPolicy
	}
	return p, err
}

func (s *Store) ListHolidays(ctx context.Context, tenantID string, year int) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, date, name, COALESCE(region, '')
    FROM holidays
    WHERE tenant_id = $1 AND ($2 = 0 OR EXTRACT(YEAR FROM date) = $2)
    ORDER BY date
  `, tenantID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Holiday{}
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.Region); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) CreateHoliday(ctx context.Context, tenantID string, h Holiday) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO holidays (tenant_id, date, name, region)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, tenantID, h.Date, h.Name, nullIfEmpty(h.Region)).Scan(&id)
	return id, err
}

func (s *Store) DeleteHoliday(ctx context.Context, tenantID, holidayID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE tenant_id = $1 AND id = $2", tenantID, holidayID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) HolidayDates(ctx context.Context, tenantID string, from, to time.Time) ([]time.Time, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT date FROM holidays WHERE tenant_id = $1 AND date BETWEEN $2 AND $3
  `, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const employeeRefColumns = `
    SELECT e.id, COALESCE(e.user_id::text, ''), e.first_name || ' ' || e.last_name,
           COALESCE(e.manager_id::text, ''), COALESCE(m.user_id::text, ''), e.start_date
    FROM employees e
    LEFT JOIN employees m ON m.id = e.manager_id`

func scanEmployeeRef(row interface{ Scan(...any) error }) (EmployeeRef, error) {
	var ref EmployeeRef
	err := row.Scan(&ref.ID, &ref.UserID, &ref.Name, &ref.ManagerID, &ref.ManagerUserID, &ref.StartDate)
	return ref, err
}

func (s *Store) EmployeeByUser(ctx context.Context, tenantID, userID string) (EmployeeRef, error) {
	ref, err := scanEmployeeRef(s.DB.QueryRow(ctx, employeeRefColumns+`
    WHERE e.tenant_id = $1 AND e.user_id = $2
  `, tenantID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeRef{}, ErrNoEmployee
	}
	return ref, err
}

func (s *Store) Employee(ctx context.Context, tenantID, employeeID string) (EmployeeRef, error) {
	ref, err := scanEmployeeRef(s.DB.QueryRow(ctx, employeeRefColumns+`
    WHERE e.tenant_id = $1 AND e.id = $2
  `, tenantID, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeRef{}, ErrNotFound
	}
	return ref, err
}

func (s *Store) ActiveEmployees(ctx context.Context, tenantID string) ([]EmployeeRef, error) {
	rows, err := s.DB.Query(ctx, employeeRefColumns+`
    WHERE e.tenant_id = $1 AND e.status <> 'terminated'
    ORDER BY e.last_name, e.first_name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmployeeRef
	for rows.Next() {
		ref, err := scanEmployeeRef(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

const requestColumns = `
    SELECT r.id, r.employee_id, e.first_name || ' ' || e.last_name, r.leave_type_id, lt.name,
           r.start_date, r.end_date, r.start_half, r.end_half, r.days, COALESCE(r.reason, ''), r.status,
           COALESCE(r.decided_by::text, ''), r.decided_at, r.created_at
    FROM leave_requests r
    JOIN employees e ON e.id = r.employee_id
    JOIN leave_types lt ON lt.id = r.leave_type_id`

func scanRequest(row interface{ Scan(...any) error }) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.LeaveTypeID, &r.LeaveTypeName,
		&r.StartDate, &r.EndDate, &r.StartHalf, &r.EndHalf, &r.Days, &r.Reason, &r.Status,
		&r.DecidedBy, &r.DecidedAt, &r.CreatedAt)
	return r, err
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	defer rows.Close()
	out := []Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListRequests(ctx context.Context, tenantID string, scope RequestScope, filter RequestFilter) ([]Request, int, error) {
	args := []any{tenantID}
	clauses := []string{"r.tenant_id = $1"}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !scope.All {
		p := next(scope.EmployeeID)
		clauses = append(clauses, fmt.Sprintf("(r.employee_id::text = %[1]s OR e.manager_id::text = %[1]s)", p))
	}
	if filter.EmployeeID != "" {
		clauses = append(clauses, "r.employee_id::text = "+next(filter.EmployeeID))
	}
	if filter.Status != "" {
		clauses = append(clauses, "r.status = "+next(filter.Status))
	}
	if filter.From != nil {
		clauses = append(clauses, "r.end_date >= "+next(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "r.start_date <= "+next(*filter.To))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_requests r
    JOIN employees e ON e.id = r.employee_id
    WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitArg := next(filter.Limit)
	offsetArg := next(filter.Offset)
	rows, err := s.DB.Query(ctx, requestColumns+`
    WHERE `+where+`
    ORDER BY r.start_date DESC, r.created_at DESC
    LIMIT `+limitArg+` OFFSET `+offsetArg, args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectRequests(rows)
	return out, total, err
}

func (s *Store) GetRequest(ctx context.Context, tenantID, requestID string) (Request, error) {
	r, err := scanRequest(s.DB.QueryRow(ctx, requestColumns+`
    WHERE r.tenant_id = $1 AND r.id = $2
  `, tenantID, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return r, err
}

// RequestsSince returns requests starting on or after since. An empty
// employeeID returns every employee's requests.
func (s *Store) RequestsSince(ctx context.Context, tenantID, employeeID string, since time.Time) ([]Request, error) {
	return requestsSince(ctx, s.DB, tenantID, employeeID, "", since)
}

func requestsSince(ctx context.Context, db querier.Querier, tenantID, employeeID, leaveTypeID string, since time.Time) ([]Request, error) {
	rows, err := db.Query(ctx, requestColumns+`
    WHERE r.tenant_id = $1 AND r.start_date >= $2
      AND ($3 = '' OR r.employee_id::text = $3)
      AND ($4 = '' OR r.leave_type_id::text = $4)
    ORDER BY r.start_date
  `, tenantID, since, employeeID, leaveTypeID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (s *Store) AdjustmentsSince(ctx context.Context, tenantID, employeeID string, since time.Time) ([]Adjustment, error) {
	return adjustmentsSince(ctx, s.DB, tenantID, employeeID, "", since)
}

func adjustmentsSince(ctx context.Context, db querier.Querier, tenantID, employeeID, leaveTypeID string, since time.Time) ([]Adjustment, error) {
	rows, err := db.Query(ctx, `
    SELECT id, employee_id, leave_type_id, amount, COALESCE(reason, ''), effective_date, COALESCE(created_by::text, ''), created_at
    FROM leave_balance_adjustments
    WHERE tenant_id = $1 AND effective_date >= $2
      AND ($3 = '' OR employee_id::text = $3)
      AND ($4 = '' OR leave_type_id::text = $4)
    ORDER BY effective_date
  `, tenantID, since, employeeID, leaveTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Adjustment{}
	for rows.Next() {
		var a Adjustment
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.LeaveTypeID, &a.Amount, &a.Reason, &a.EffectiveDate, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAdjustment(ctx context.Context, tenantID string, a Adjustment) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_balance_adjustments (tenant_id, employee_id, leave_type_id, amount, reason, effective_date, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, tenantID, a.EmployeeID, a.LeaveTypeID, a.Amount, a.Reason, a.EffectiveDate, nullIfEmpty(a.CreatedBy)).Scan(&id)
	return id, err
}

// CreateRequest locks the employee row, runs check over the employee's
// requests and adjustments of the same type since the start of the previous
// year, and inserts req when check passes.
func (s *Store) CreateRequest(ctx context.Context, tenantID string, req Request, check BalanceCheck) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `
    SELECT id FROM employees WHERE tenant_id = $1 AND id = $2 FOR UPDATE
  `, tenantID, req.EmployeeID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoEmployee
	}
	if err != nil {
		return "", err
	}

	if check != nil {
		since := time.Date(req.StartDate.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)
		requests, err := requestsSince(ctx, tx, tenantID, req.EmployeeID, req.LeaveTypeID, since)
		if err != nil {
			return "", err
		}
		adjustments, err := adjustmentsSince(ctx, tx, tenantID, req.EmployeeID, req.LeaveTypeID, since)
		if err != nil {
			return "", err
		}
		if err := check(requests, adjustments); err != nil {
			return "", err
		}
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO leave_requests (tenant_id, employee_id, leave_type_id, start_date, end_date, start_half, end_half, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, tenantID, req.EmployeeID, req.LeaveTypeID, req.StartDate, req.EndDate, req.StartHalf, req.EndHalf, req.Days,
		req.Reason, req.Status).Scan(&id); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// Transition locks the request, applies fn and persists the new status with
// an approvals trail row.
func (s *Store) Transition(ctx context.Context, tenantID, requestID, actorUserID string, fn func(Request) (Request, error)) (Request, Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, Request{}, err
	}
	defer tx.Rollback(ctx)

	before, err := scanRequest(tx.QueryRow(ctx, requestColumns+`
    WHERE r.tenant_id = $1 AND r.id = $2
    FOR UPDATE OF r
  `, tenantID, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, Request{}, err
	}

	after, err := fn(before)
	if err != nil {
		return Request{}, Request{}, err
	}
	now := time.Now().UTC()
	after.DecidedBy = actorUserID
	after.DecidedAt = &now

	if _, err := tx.Exec(ctx, `
    UPDATE leave_requests SET status = $1, decided_by = $2, decided_at = $3, updated_at = now()
    WHERE tenant_id = $4 AND id = $5
  `, after.Status, nullIfEmpty(actorUserID), now, tenantID, requestID); err != nil {
		return Request{}, Request{}, err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO leave_approvals (tenant_id, leave_request_id, approver_id, status, decided_at)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, requestID, nullIfEmpty(actorUserID), after.Status, now); err != nil {
		return Request{}, Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, Request{}, err
	}
	return before, after, nil
}

// StalePending lists open requests created before the cutoff.
func (s *Store) StalePending(ctx context.Context, tenantID string, before time.Time) ([]Request, error) {
	rows, err := s.DB.Query(ctx, requestColumns+`
    WHERE r.tenant_id = $1 AND r.status IN ('pending', 'pending_hr') AND r.created_at < $2
    ORDER BY r.created_at
  `, tenantID, before)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
