package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrconsole/internal/domain/access"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/leave"
	"hrconsole/internal/domain/recruitment"
	"hrconsole/internal/platform/config"
)

// DefaultLeavePolicies seeds a new tenant's leave catalogue.
var DefaultLeavePolicies = []struct {
	Type   leave.LeaveType
	Policy leave.Policy
}{
	{
		Type:   leave.LeaveType{Name: "Annual Leave", Code: "ANNUAL", IsPaid: true},
		Policy: leave.Policy{Entitlement: 20, AccrualPeriod: leave.AccrualYearly, CarryOverLimit: 5},
	},
	{
		Type:   leave.LeaveType{Name: "Sick Leave", Code: "SICK", IsPaid: true, RequiresDoc: true},
		Policy: leave.Policy{Entitlement: 10, AccrualPeriod: leave.AccrualYearly},
	},
	{
		Type:   leave.LeaveType{Name: "Unpaid Leave", Code: "UNPAID"},
		Policy: leave.Policy{Entitlement: 0, AccrualPeriod: leave.AccrualYearly, AllowNegative: true, RequiresHRApproval: true},
	},
}

// Seed makes sure the configured tenant exists with its navigation modules,
// system roles, admin user, pipeline stages and leave policies. Existing rows
// are left as they are, so edits made through the console survive reseeding.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	catalog, err := access.LoadCatalog(cfg.ModuleCatalogPath)
	if err != nil {
		return err
	}

	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}
	tree, err := ensureModules(ctx, pool, tenantID, catalog)
	if err != nil {
		return err
	}
	roleIDs, err := ensureRoles(ctx, pool, tenantID, tree, catalog.Roles)
	if err != nil {
		return err
	}
	if err := ensureAdminUser(ctx, pool, tenantID, roleIDs[auth.RoleAdministrator], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	if err := ensureStages(ctx, pool, tenantID); err != nil {
		return err
	}
	if err := ensureLeavePolicies(ctx, pool, tenantID); err != nil {
		return err
	}
	slog.Info("seed complete", "tenantId", tenantID, "modules", len(tree.Modules()), "roles", len(roleIDs))
	return nil
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, err
}

// ensureModules inserts catalog modules missing from the tenant, parents
// first, and returns the persisted tree.
func ensureModules(ctx context.Context, pool *pgxpool.Pool, tenantID string, catalog access.Catalog) (*access.ModuleTree, error) {
	store := access.NewStore(pool)
	existing, err := store.ListModules(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(existing))
	for _, m := range existing {
		ids[m.Key] = m.ID
	}

	for _, m := range catalog.Flatten() {
		if _, ok := ids[m.Key]; ok {
			continue
		}
		parentKey := m.ParentID
		m.ParentID = ""
		if parentKey != "" {
			m.ParentID = ids[parentKey]
		}
		id, err := store.CreateModule(ctx, tenantID, m)
		if err != nil {
			return nil, fmt.Errorf("seed module %s: %w", m.Key, err)
		}
		ids[m.Key] = id
	}

	modules, err := store.ListModules(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return access.NewModuleTree(modules)
}

// ensureRoles creates missing system roles with their catalog grants.
func ensureRoles(ctx context.Context, pool *pgxpool.Pool, tenantID string, tree *access.ModuleTree, roles []access.CatalogRole) (map[string]string, error) {
	store := access.NewStore(pool)
	roleIDs := map[string]string{}
	for _, role := range roles {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE tenant_id = $1 AND name = $2", tenantID, role.Name).Scan(&id)
		if err == nil {
			roleIDs[role.Name] = id
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		id, err = store.CreateRole(ctx, tenantID, access.Role{
			Name:        role.Name,
			Description: role.Description,
			IsSystem:    true,
			Permissions: access.RoleGrants(tree, role),
		})
		if err != nil {
			return nil, err
		}
		roleIDs[role.Name] = id
	}
	return roleIDs, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, roleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	if roleID == "" {
		return fmt.Errorf("module catalog has no %s role", auth.RoleAdministrator)
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND lower(email) = lower($2)", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = auth.NewStore(pool).CreateUser(ctx, tenantID, email, hash, roleID)
	return err
}

func ensureStages(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	store := recruitment.NewStore(pool)
	stages, err := store.ListStages(ctx, tenantID)
	if err != nil || len(stages) > 0 {
		return err
	}
	for _, st := range recruitment.DefaultStages() {
		if _, err := store.CreateStage(ctx, tenantID, st); err != nil {
			return err
		}
	}
	return nil
}

func ensureLeavePolicies(ctx context.Context, pool *pgxpool.Pool, tenantID string) error {
	store := leave.NewStore(pool)
	types, err := store.ListTypes(ctx, tenantID)
	if err != nil || len(types) > 0 {
		return err
	}
	for _, d := range DefaultLeavePolicies {
		typeID, err := store.CreateType(ctx, tenantID, d.Type)
		if err != nil {
			return err
		}
		p := d.Policy
		p.LeaveTypeID = typeID
		if _, err := store.UpsertPolicy(ctx, tenantID, p); err != nil {
			return err
		}
	}
	return nil
}
