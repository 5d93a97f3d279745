package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var contactColumns = []string{"tenant_id", "employee_id", "full_name", "relationship", "phone", "email", "address", "is_primary"}

func (s *Store) ListEmergencyContacts(ctx context.Context, tenantID, employeeID string) ([]EmergencyContact, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text AS id, employee_id::text AS employee_id, full_name, relationship,
           COALESCE(phone, '') AS phone, COALESCE(email, '') AS email, COALESCE(address, '') AS address,
           is_primary, created_at, updated_at
    FROM employee_emergency_contacts
    WHERE tenant_id = $1 AND employee_id = $2
    ORDER BY is_primary DESC, created_at, full_name
  `, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[EmergencyContact])
}

// ReplaceEmergencyContacts swaps the employee's contacts for contacts in one
// transaction, bulk loading the new set with COPY.
func (s *Store) ReplaceEmergencyContacts(ctx context.Context, tenantID, employeeID string, contacts []EmergencyContact) error {
	tenant, err := uuid.Parse(tenantID)
	if err != nil {
		return fmt.Errorf("tenant id: %w", err)
	}
	employee, err := uuid.Parse(employeeID)
	if err != nil {
		return fmt.Errorf("employee id: %w", err)
	}
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
      DELETE FROM employee_emergency_contacts WHERE tenant_id = $1 AND employee_id = $2
    `, tenantID, employeeID); err != nil {
			return err
		}
		if len(contacts) == 0 {
			return nil
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"employee_emergency_contacts"}, contactColumns,
			pgx.CopyFromSlice(len(contacts), func(i int) ([]any, error) {
				c := contacts[i]
				return []any{tenant, employee, c.FullName, c.Relationship,
					nullIfEmpty(c.Phone), nullIfEmpty(c.Email), nullIfEmpty(c.Address), c.IsPrimary}, nil
			}))
		return err
	})
}

// NormalizeContacts trims every field, drops entries missing a name or a
// relationship, and leaves exactly one primary when any remain.
func NormalizeContacts(contacts []EmergencyContact) []EmergencyContact {
	out := make([]EmergencyContact, 0, len(contacts))
	primary := -1
	for _, c := range contacts {
		c.FullName = strings.TrimSpace(c.FullName)
		c.Relationship = strings.TrimSpace(c.Relationship)
		c.Phone = strings.TrimSpace(c.Phone)
		c.Email = strings.TrimSpace(c.Email)
		c.Address = strings.TrimSpace(c.Address)
		if c.FullName == "" || c.Relationship == "" {
			continue
		}
		if c.IsPrimary && primary < 0 {
			primary = len(out)
		}
		c.IsPrimary = false
		out = append(out, c)
	}
	if len(out) > 0 {
		out[max(primary, 0)].IsPrimary = true
	}
	return out
}
