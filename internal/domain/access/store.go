package access

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

func (s *Store) ListModules(ctx context.Context, tenantID string) ([]NavigationModule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, key, name, COALESCE(parent_id::text, ''), sort_order, COALESCE(path, ''), COALESCE(icon, ''), created_at
    FROM navigation_modules
    WHERE tenant_id = $1
    ORDER BY sort_order, name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NavigationModule
	for rows.Next() {
		var m NavigationModule
		if err := rows.Scan(&m.ID, &m.Key, &m.Name, &m.ParentID, &m.SortOrder, &m.Path, &m.Icon, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CreateModule(ctx context.Context, tenantID string, module NavigationModule) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO navigation_modules (tenant_id, key, name, parent_id, sort_order, path, icon)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, tenantID, module.Key, module.Name, nullIfEmpty(module.ParentID), module.SortOrder, module.Path, module.Icon).Scan(&id)
	return id, err
}

func (s *Store) UpdateModule(ctx context.Context, tenantID string, module NavigationModule) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE navigation_modules
    SET name = $1, parent_id = $2, sort_order = $3, path = $4, icon = $5
    WHERE tenant_id = $6 AND id = $7
  `, module.Name, nullIfEmpty(module.ParentID), module.SortOrder, module.Path, module.Icon, tenantID, module.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
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
      UPDATE navigation_modules SET sort_order = $1 WHERE tenant_id = $2 AND id = $3
    `, order, tenantID, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListRoles(ctx context.Context, tenantID string) ([]Role, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.tenant_id, r.name, COALESCE(r.description, ''), r.is_system, r.created_at,
           (SELECT COUNT(1) FROM users u WHERE u.role_id = r.id)
    FROM roles r
    WHERE r.tenant_id = $1
    ORDER BY r.is_system DESC, r.name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.IsSystem, &role.CreatedAt, &role.UserCount); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, tenantID, roleID string) (Role, error) {
	var role Role
	err := s.DB.QueryRow(ctx, `
    SELECT r.id, r.tenant_id, r.name, COALESCE(r.description, ''), r.is_system, r.created_at,
           (SELECT COUNT(1) FROM users u WHERE u.role_id = r.id)
    FROM roles r
    WHERE r.tenant_id = $1 AND r.id = $2
  `, tenantID, roleID).Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.IsSystem, &role.CreatedAt, &role.UserCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrNotFound
	}
	return role, err
}

// CreateRole inserts the role and its permission map in one transaction.
func (s *Store) CreateRole(ctx context.Context, tenantID string, role Role) (string, error) {
	var id string
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO roles (tenant_id, name, description, is_system)
      VALUES ($1,$2,$3,$4)
      RETURNING id
    `, tenantID, role.Name, role.Description, role.IsSystem).Scan(&id); err != nil {
			return err
		}
		return writePermissions(ctx, tx, id, role.Permissions)
	})
	return id, err
}

func (s *Store) UpdateRole(ctx context.Context, tenantID, roleID, name, description string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE roles SET name = $1, description = $2 WHERE tenant_id = $3 AND id = $4
  `, name, description, tenantID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, tenantID, roleID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM roles WHERE tenant_id = $1 AND id = $2 AND NOT is_system", tenantID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListRoleIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM roles WHERE tenant_id = $1", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) RolePermissions(ctx context.Context, roleID string) (PermissionMap, error) {
	return scanPermissions(ctx, s.DB, roleID)
}

// MutateRolePermissions locks the role row, applies fn to the stored map and
// writes the result back in one transaction.
func (s *Store) MutateRolePermissions(ctx context.Context, roleID string, fn func(PermissionMap) (PermissionMap, error)) (PermissionMap, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var locked string
	if err := tx.QueryRow(ctx, "SELECT id FROM roles WHERE id = $1 FOR UPDATE", roleID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	current, err := scanPermissions(ctx, tx, roleID)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM role_module_permissions WHERE role_id = $1", roleID); err != nil {
		return nil, err
	}
	if err := writePermissions(ctx, tx, roleID, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) PermissionKeys(ctx context.Context, roleID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT m.key, p.can_view, p.can_create, p.can_edit, p.can_delete
    FROM role_module_permissions p
    JOIN navigation_modules m ON m.id = p.module_id
    WHERE p.role_id = $1
  `, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		var g Grant
		if err := rows.Scan(&key, &g.View, &g.Create, &g.Edit, &g.Delete); err != nil {
			return nil, err
		}
		for _, a := range g.Actions() {
			keys = append(keys, PermissionKey(key, a))
		}
	}
	return keys, rows.Err()
}

func (s *Store) ListUsers(ctx context.Context, tenantID string) ([]UserRole, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.email, u.status, u.role_id, r.name
    FROM users u
    JOIN roles r ON r.id = u.role_id
    WHERE u.tenant_id = $1
    ORDER BY u.email
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserRole
	for rows.Next() {
		var u UserRole
		if err := rows.Scan(&u.UserID, &u.Email, &u.Status, &u.RoleID, &u.RoleName); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) SetUserRole(ctx context.Context, tenantID, userID, roleID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET role_id = $1
    WHERE tenant_id = $2 AND id = $3
      AND EXISTS (SELECT 1 FROM roles WHERE tenant_id = $2 AND id = $1)
  `, roleID, tenantID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanPermissions(ctx context.Context, db rowQuerier, roleID string) (PermissionMap, error) {
	rows, err := db.Query(ctx, `
    SELECT module_id, can_view, can_create, can_edit, can_delete
    FROM role_module_permissions
    WHERE role_id = $1
  `, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := PermissionMap{}
	for rows.Next() {
		var moduleID string
		var g Grant
		if err := rows.Scan(&moduleID, &g.View, &g.Create, &g.Edit, &g.Delete); err != nil {
			return nil, err
		}
		perms.put(moduleID, g)
	}
	return perms, rows.Err()
}

func writePermissions(ctx context.Context, tx pgx.Tx, roleID string, perms PermissionMap) error {
	for moduleID, g := range perms {
		if _, err := tx.Exec(ctx, `
      INSERT INTO role_module_permissions (role_id, module_id, can_view, can_create, can_edit, can_delete)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, roleID, moduleID, g.View, g.Create, g.Edit, g.Delete); err != nil {
			return err
		}
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
