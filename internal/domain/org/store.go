package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hrconsole/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const unitColumns = `
    SELECT u.id, u.name, u.kind, COALESCE(u.parent_id::text, ''), COALESCE(u.manager_employee_id::text, ''),
           COALESCE(m.first_name || ' ' || m.last_name, ''), u.sort_order, u.created_at
    FROM org_units u
    LEFT JOIN employees m ON m.id = u.manager_employee_id`

func scanUnit(row interface{ Scan(...any) error }) (OrgUnit, error) {
	var u OrgUnit
	err := row.Scan(&u.ID, &u.Name, &u.Kind, &u.ParentID, &u.ManagerEmployeeID, &u.ManagerName, &u.SortOrder, &u.CreatedAt)
	return u, err
}

func (s *Store) ListUnits(ctx context.Context, tenantID string) ([]OrgUnit, error) {
	rows, err := s.DB.Query(ctx, unitColumns+`
    WHERE u.tenant_id = $1
    ORDER BY u.sort_order, u.name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrgUnit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) GetUnit(ctx context.Context, tenantID, unitID string) (OrgUnit, error) {
	u, err := scanUnit(s.DB.QueryRow(ctx, unitColumns+`
    WHERE u.tenant_id = $1 AND u.id = $2
  `, tenantID, unitID))
	if errors.Is(err, pgx.ErrNoRows) {
		return OrgUnit{}, ErrNotFound
	}
	return u, err
}

func (s *Store) CreateUnit(ctx context.Context, tenantID string, unit OrgUnit) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO org_units (tenant_id, name, kind, parent_id, manager_employee_id, sort_order)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, tenantID, unit.Name, unit.Kind, nullIfEmpty(unit.ParentID), nullIfEmpty(unit.ManagerEmployeeID), unit.SortOrder).Scan(&id)
	return id, err
}

func (s *Store) UpdateUnit(ctx context.Context, tenantID string, unit OrgUnit) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE org_units
    SET name = $1, kind = $2, parent_id = $3, manager_employee_id = $4, sort_order = $5, updated_at = now()
    WHERE tenant_id = $6 AND id = $7
  `, unit.Name, unit.Kind, nullIfEmpty(unit.ParentID), nullIfEmpty(unit.ManagerEmployeeID), unit.SortOrder, tenantID, unit.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUnit removes a unit with no children and no employees, checked in
// the same statement as the delete.
func (s *Store) DeleteUnit(ctx context.Context, tenantID, unitID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM org_units u
    WHERE u.tenant_id = $1 AND u.id = $2
      AND NOT EXISTS (SELECT 1 FROM org_units c WHERE c.parent_id = u.id)
      AND NOT EXISTS (SELECT 1 FROM employees e WHERE e.org_unit_id = u.id)
  `, tenantID, unitID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetUnit(ctx, tenantID, unitID); err != nil {
			return err
		}
		return ErrInUse
	}
	return nil
}

func (s *Store) UpdateSortOrders(ctx context.Context, tenantID string, orders map[string]int) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for id, order := range orders {
		if _, err := tx.Exec(ctx, `
      UPDATE org_units SET sort_order = $1 WHERE tenant_id = $2 AND id = $3
    `, order, tenantID, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Headcounts counts non-terminated employees per org unit.
func (s *Store) Headcounts(ctx context.Context, tenantID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT org_unit_id::text, COUNT(1)
    FROM employees
    WHERE tenant_id = $1 AND org_unit_id IS NOT NULL AND status <> 'terminated'
    GROUP BY org_unit_id
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		out[id] = count
	}
	return out, rows.Err()
}

func (s *Store) ChartEmployees(ctx context.Context, tenantID string) ([]ChartEmployee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.first_name || ' ' || e.last_name, COALESCE(e.job_title, ''),
           COALESCE(ou.name, ''), COALESCE(e.manager_id::text, '')
    FROM employees e
    LEFT JOIN org_units ou ON ou.id = e.org_unit_id
    WHERE e.tenant_id = $1 AND e.status <> 'terminated'
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChartEmployee
	for rows.Next() {
		var e ChartEmployee
		if err := rows.Scan(&e.ID, &e.Name, &e.JobTitle, &e.OrgUnitName, &e.ManagerID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
