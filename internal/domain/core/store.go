package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	cryptoutil "hrconsole/internal/platform/crypto"
	"hrconsole/internal/platform/querier"
)

type Store struct {
	DB     querier.Querier
	Crypto *cryptoutil.Service
}

func NewStore(db querier.Querier, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

const employeeColumns = `
           e.id,
           COALESCE(e.user_id::text, ''),
           COALESCE(e.employee_number, ''),
           e.first_name, e.last_name, e.email,
           COALESCE(e.phone, ''),
           e.date_of_birth,
           COALESCE(e.address, ''),
           COALESCE(e.job_title, ''),
           COALESCE(e.national_id, ''),
           e.national_id_enc,
           COALESCE(e.bank_account, ''),
           e.bank_account_enc,
           e.salary,
           e.salary_enc,
           e.currency,
           COALESCE(e.employment_type, ''),
           COALESCE(e.org_unit_id::text, ''),
           COALESCE(ou.name, ''),
           COALESCE(e.manager_id::text, ''),
           COALESCE(m.first_name || ' ' || m.last_name, ''),
           e.start_date, e.end_date, e.status, e.created_at, e.updated_at`

const employeeFrom = `
    FROM employees e
    LEFT JOIN org_units ou ON ou.id = e.org_unit_id
    LEFT JOIN employees m ON m.id = e.manager_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanEmployee(row rowScanner) (*Employee, error) {
	var emp Employee
	var nationalEnc, bankEnc, salaryEnc []byte
	var nationalPlain, bankPlain string
	var salaryPlain *float64
	if err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Phone,
		&emp.DateOfBirth, &emp.Address, &emp.JobTitle, &nationalPlain, &nationalEnc, &bankPlain, &bankEnc, &salaryPlain, &salaryEnc,
		&emp.Currency, &emp.EmploymentType, &emp.OrgUnitID, &emp.OrgUnitName, &emp.ManagerID, &emp.ManagerName,
		&emp.StartDate, &emp.EndDate, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	emp.NationalID = s.Crypto.StringOr(nationalEnc, nationalPlain)
	emp.BankAccount = s.Crypto.StringOr(bankEnc, bankPlain)
	emp.Salary = s.Crypto.FloatOr(salaryEnc, salaryPlain)
	return &emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (*Employee, error) {
	emp, err := s.scanEmployee(s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+employeeFrom+`
    WHERE e.tenant_id = $1 AND e.id = $2
  `, tenantID, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return emp, err
}

func (s *Store) GetEmployeeByUserID(ctx context.Context, tenantID, userID string) (*Employee, error) {
	emp, err := s.scanEmployee(s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+employeeFrom+`
    WHERE e.tenant_id = $1 AND e.user_id = $2
  `, tenantID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return emp, err
}

// ListEmployees returns one page matching q and the total match count.
func (s *Store) ListEmployees(ctx context.Context, q EmployeeQuery) ([]Employee, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM employees e
    WHERE `+q.Where, q.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(append([]any(nil), q.Args...), q.Limit, q.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT%s%s
    WHERE %s
    ORDER BY %s
    LIMIT $%d OFFSET $%d
  `, employeeColumns, employeeFrom, q.Where, q.OrderBy, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *emp)
	}
	return out, total, rows.Err()
}

// sensitiveArgs returns the plain and sealed forms of the sensitive columns.
// Plain columns are nulled once a key is configured.
func (s *Store) sensitiveArgs(emp Employee) (nationalPlain, nationalEnc, bankPlain, bankEnc, salaryPlain, salaryEnc any, err error) {
	nationalPlain, bankPlain, salaryPlain = nullIfEmpty(emp.NationalID), nullIfEmpty(emp.BankAccount), emp.Salary
	if !s.Crypto.Configured() {
		return nationalPlain, nil, bankPlain, nil, salaryPlain, nil, nil
	}
	n, err := s.Crypto.EncryptString(emp.NationalID)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	b, err := s.Crypto.EncryptString(emp.BankAccount)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	sal, err := s.Crypto.EncryptFloat(emp.Salary)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	return nil, n, nil, b, nil, sal, nil
}

// CreateEmployee inserts emp and, when login is set, its console user in one
// transaction. It returns the employee and user ids.
func (s *Store) CreateEmployee(ctx context.Context, tenantID string, emp Employee, login *NewLogin) (string, string, error) {
	nationalPlain, nationalEnc, bankPlain, bankEnc, salaryPlain, salaryEnc, err := s.sensitiveArgs(emp)
	if err != nil {
		return "", "", err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", "", err
	}
	defer tx.Rollback(ctx)

	var userID string
	if login != nil {
		if err := tx.QueryRow(ctx, `
      INSERT INTO users (tenant_id, email, password_hash, role_id)
      VALUES ($1,$2,$3,$4)
      RETURNING id
    `, tenantID, login.Email, login.PasswordHash, login.RoleID).Scan(&userID); err != nil {
			return "", "", err
		}
	} else {
		userID = emp.UserID
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, user_id, employee_number, first_name, last_name, email, phone, date_of_birth,
      address, job_title, national_id, national_id_enc, bank_account, bank_account_enc, salary, salary_enc, currency,
      employment_type, org_unit_id, manager_id, start_date, end_date, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
    RETURNING id
  `,
		tenantID, nullIfEmpty(userID), nullIfEmpty(emp.EmployeeNumber), emp.FirstName, emp.LastName, emp.Email, emp.Phone,
		emp.DateOfBirth, emp.Address, emp.JobTitle, nationalPlain, nationalEnc, bankPlain, bankEnc, salaryPlain, salaryEnc,
		emp.Currency, emp.EmploymentType, nullIfEmpty(emp.OrgUnitID), nullIfEmpty(emp.ManagerID),
		emp.StartDate, emp.EndDate, emp.Status,
	).Scan(&id); err != nil {
		return "", "", err
	}

	if emp.ManagerID != "" {
		if _, err := tx.Exec(ctx, `
      INSERT INTO employee_manager_history (tenant_id, employee_id, manager_id, start_date)
      VALUES ($1,$2,$3,CURRENT_DATE)
    `, tenantID, id, emp.ManagerID); err != nil {
			return "", "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", "", err
	}
	return id, userID, nil
}

// UpdateEmployee overwrites the employee row. A manager change closes the
// open history entry and opens a new one.
func (s *Store) UpdateEmployee(ctx context.Context, tenantID string, emp Employee) error {
	nationalPlain, nationalEnc, bankPlain, bankEnc, salaryPlain, salaryEnc, err := s.sensitiveArgs(emp)
	if err != nil {
		return err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var previousManager string
	err = tx.QueryRow(ctx, `
    SELECT COALESCE(manager_id::text, '')
    FROM employees
    WHERE tenant_id = $1 AND id = $2
    FOR UPDATE
  `, tenantID, emp.ID).Scan(&previousManager)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE employees
    SET employee_number = $1,
        first_name = $2,
        last_name = $3,
        email = $4,
        phone = $5,
        date_of_birth = $6,
        address = $7,
        job_title = $8,
        national_id = $9,
        national_id_enc = $10,
        bank_account = $11,
        bank_account_enc = $12,
        salary = $13,
        salary_enc = $14,
        currency = $15,
        employment_type = $16,
        org_unit_id = $17,
        manager_id = $18,
        start_date = $19,
        end_date = $20,
        status = $21,
        updated_at = now()
    WHERE tenant_id = $22 AND id = $23
  `,
		nullIfEmpty(emp.EmployeeNumber), emp.FirstName, emp.LastName, emp.Email, emp.Phone, emp.DateOfBirth, emp.Address, emp.JobTitle,
		nationalPlain, nationalEnc, bankPlain, bankEnc, salaryPlain, salaryEnc, emp.Currency, emp.EmploymentType,
		nullIfEmpty(emp.OrgUnitID), nullIfEmpty(emp.ManagerID),
		emp.StartDate, emp.EndDate, emp.Status, tenantID, emp.ID,
	); err != nil {
		return err
	}

	if previousManager != emp.ManagerID {
		if _, err := tx.Exec(ctx, `
      UPDATE employee_manager_history
      SET end_date = CURRENT_DATE
      WHERE tenant_id = $1 AND employee_id = $2 AND end_date IS NULL
    `, tenantID, emp.ID); err != nil {
			return err
		}
		if emp.ManagerID != "" {
			if _, err := tx.Exec(ctx, `
        INSERT INTO employee_manager_history (tenant_id, employee_id, manager_id, start_date)
        VALUES ($1,$2,$3,CURRENT_DATE)
      `, tenantID, emp.ID, emp.ManagerID); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// HasDirectReports reports whether anyone still employed reports to employeeID.
func (s *Store) HasDirectReports(ctx context.Context, tenantID, employeeID string) (bool, error) {
	var found bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM employees
      WHERE tenant_id = $1 AND manager_id = $2 AND status <> 'terminated'
    )
  `, tenantID, employeeID).Scan(&found)
	return found, err
}

func (s *Store) ManagerMap(ctx context.Context, tenantID string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(manager_id::text, '')
    FROM employees
    WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var id, manager string
		if err := rows.Scan(&id, &manager); err != nil {
			return nil, err
		}
		out[id] = manager
	}
	return out, rows.Err()
}

func (s *Store) ManagerHistory(ctx context.Context, tenantID, employeeID string) ([]ManagerHistoryEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT h.manager_id::text, COALESCE(m.first_name || ' ' || m.last_name, ''), h.start_date, h.end_date
    FROM employee_manager_history h
    LEFT JOIN employees m ON m.id = h.manager_id
    WHERE h.tenant_id = $1 AND h.employee_id = $2
    ORDER BY h.start_date DESC, h.created_at DESC
  `, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ManagerHistoryEntry{}
	for rows.Next() {
		var entry ManagerHistoryEntry
		if err := rows.Scan(&entry.ManagerID, &entry.ManagerName, &entry.StartDate, &entry.EndDate); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) InsertAccessLog(ctx context.Context, tenantID, actorID, employeeID, requestID string, fields []string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO access_logs (tenant_id, actor_user_id, employee_id, fields, request_id)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, actorID, employeeID, fields, nullIfEmpty(requestID))
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
