package access

import "context"

type StoreAPI interface {
	ListModules(ctx context.Context, tenantID string) ([]NavigationModule, error)
	CreateModule(ctx context.Context, tenantID string, module NavigationModule) (string, error)
	UpdateModule(ctx context.Context, tenantID string, module NavigationModule) error
	UpdateSortOrders(ctx context.Context, tenantID string, orders map[string]int) error

	ListRoles(ctx context.Context, tenantID string) ([]Role, error)
	GetRole(ctx context.Context, tenantID, roleID string) (Role, error)
	CreateRole(ctx context.Context, tenantID string, role Role) (string, error)
	UpdateRole(ctx context.Context, tenantID, roleID, name, description string) error
	DeleteRole(ctx context.Context, tenantID, roleID string) error
	ListRoleIDs(ctx context.Context, tenantID string) ([]string, error)

	RolePermissions(ctx context.Context, roleID string) (PermissionMap, error)
	MutateRolePermissions(ctx context.Context, roleID string, fn func(PermissionMap) (PermissionMap, error)) (PermissionMap, error)
	PermissionKeys(ctx context.Context, roleID string) ([]string, error)

	ListUsers(ctx context.Context, tenantID string) ([]UserRole, error)
	SetUserRole(ctx context.Context, tenantID, userID, roleID string) error
}
