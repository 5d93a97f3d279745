package access

import (
	"context"
	"fmt"
	"strings"
)

// AdministratorRole is the system role that receives every action on
// modules created after seeding.
const AdministratorRole = "Administrator"

type RoleInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Permissions PermissionMap `json:"permissions"`
}

type Service struct {
	Store   StoreAPI
	Checker *Checker
}

func NewService(store StoreAPI, checker *Checker) *Service {
	return &Service{Store: store, Checker: checker}
}

func (s *Service) Tree(ctx context.Context, tenantID string) (*ModuleTree, error) {
	modules, err := s.Store.ListModules(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return NewModuleTree(modules)
}

func (s *Service) ListRoles(ctx context.Context, tenantID string) ([]Role, error) {
	return s.Store.ListRoles(ctx, tenantID)
}

func (s *Service) GetRole(ctx context.Context, tenantID, roleID string) (Role, error) {
	role, err := s.Store.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return Role{}, err
	}
	perms, err := s.Store.RolePermissions(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	role.Permissions = perms
	return role, nil
}

func (s *Service) CreateRole(ctx context.Context, tenantID string, input RoleInput) (Role, error) {
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return Role{}, err
	}
	if err := checkModules(tree, input.Permissions); err != nil {
		return Role{}, err
	}
	id, err := s.Store.CreateRole(ctx, tenantID, Role{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Permissions: Normalize(tree, input.Permissions),
	})
	if err != nil {
		return Role{}, err
	}
	return s.GetRole(ctx, tenantID, id)
}

func (s *Service) UpdateRole(ctx context.Context, tenantID, roleID, name, description string) (Role, error) {
	role, err := s.Store.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return Role{}, err
	}
	name = strings.TrimSpace(name)
	if role.IsSystem && name != role.Name {
		return Role{}, ErrSystemRole
	}
	if err := s.Store.UpdateRole(ctx, tenantID, roleID, name, description); err != nil {
		return Role{}, err
	}
	return s.GetRole(ctx, tenantID, roleID)
}

func (s *Service) DeleteRole(ctx context.Context, tenantID, roleID string) (Role, error) {
	role, err := s.Store.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return Role{}, err
	}
	if role.IsSystem {
		return Role{}, ErrSystemRole
	}
	if role.UserCount > 0 {
		return Role{}, ErrRoleInUse
	}
	if err := s.Store.DeleteRole(ctx, tenantID, roleID); err != nil {
		return Role{}, err
	}
	s.Checker.Invalidate(ctx, roleID)
	return role, nil
}

// ApplyAction toggles one action for a role and persists the cascaded map.
// It returns the map before and after the change.
func (s *Service) ApplyAction(ctx context.Context, tenantID, roleID, moduleID string, action Action, enabling bool) (PermissionMap, PermissionMap, error) {
	if _, err := s.Store.GetRole(ctx, tenantID, roleID); err != nil {
		return nil, nil, err
	}
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	var before PermissionMap
	after, err := s.Store.MutateRolePermissions(ctx, roleID, func(current PermissionMap) (PermissionMap, error) {
		before = current
		return ApplyAction(tree, current, moduleID, action, enabling)
	})
	if err != nil {
		return nil, nil, err
	}
	s.Checker.Invalidate(ctx, roleID)
	return before, after, nil
}

// ReplacePermissions stores a full map after normalizing it.
func (s *Service) ReplacePermissions(ctx context.Context, tenantID, roleID string, perms PermissionMap) (PermissionMap, PermissionMap, error) {
	if _, err := s.Store.GetRole(ctx, tenantID, roleID); err != nil {
		return nil, nil, err
	}
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkModules(tree, perms); err != nil {
		return nil, nil, err
	}
	var before PermissionMap
	after, err := s.Store.MutateRolePermissions(ctx, roleID, func(current PermissionMap) (PermissionMap, error) {
		before = current
		return Normalize(tree, perms), nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.Checker.Invalidate(ctx, roleID)
	return before, after, nil
}

func checkModules(tree *ModuleTree, perms PermissionMap) error {
	for id := range perms {
		if !tree.Has(id) {
			return fmt.Errorf("module %s: %w", id, ErrUnknownModule)
		}
	}
	return nil
}

func (s *Service) Navigation(ctx context.Context, tenantID, roleID string) ([]MenuNode, error) {
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	perms, err := s.Store.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return VisibleTree(tree, perms), nil
}

func (s *Service) ListModules(ctx context.Context, tenantID string) ([]NavigationModule, error) {
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return tree.Modules(), nil
}

func (s *Service) CreateModule(ctx context.Context, tenantID string, module NavigationModule) (NavigationModule, error) {
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return NavigationModule{}, err
	}
	module.Key = strings.TrimSpace(module.Key)
	if _, exists := tree.IDForKey(module.Key); exists {
		return NavigationModule{}, ErrConflict
	}
	if module.ParentID != "" && !tree.Has(module.ParentID) {
		return NavigationModule{}, ErrUnknownModule
	}
	if module.SortOrder == 0 {
		module.SortOrder = (len(siblings(tree, module.ParentID)) + 1) * 10
	}
	id, err := s.Store.CreateModule(ctx, tenantID, module)
	if err != nil {
		return NavigationModule{}, err
	}
	module.ID = id

	if err := s.grantAdministrator(ctx, tenantID, id); err != nil {
		return NavigationModule{}, err
	}
	return module, nil
}

func (s *Service) grantAdministrator(ctx context.Context, tenantID, moduleID string) error {
	roles, err := s.Store.ListRoles(ctx, tenantID)
	if err != nil {
		return err
	}
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if !role.IsSystem || role.Name != AdministratorRole {
			continue
		}
		if _, err := s.Store.MutateRolePermissions(ctx, role.ID, func(current PermissionMap) (PermissionMap, error) {
			next := current
			for _, a := range Actions {
				if next, err = ApplyAction(tree, next, moduleID, a, true); err != nil {
					return nil, err
				}
			}
			return next, nil
		}); err != nil {
			return err
		}
		s.Checker.Invalidate(ctx, role.ID)
	}
	return nil
}

// UpdateModule renames or re-parents a module. Moving a module re-normalizes
// every role so no grant is left under an invisible parent.
func (s *Service) UpdateModule(ctx context.Context, tenantID string, module NavigationModule) (NavigationModule, error) {
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return NavigationModule{}, err
	}
	current, ok := tree.Module(module.ID)
	if !ok {
		return NavigationModule{}, ErrNotFound
	}
	if err := tree.CheckMove(module.ID, module.ParentID); err != nil {
		return NavigationModule{}, err
	}
	module.Key = current.Key
	moved := current.ParentID != module.ParentID
	if moved && module.SortOrder == current.SortOrder {
		module.SortOrder = (len(siblings(tree, module.ParentID)) + 1) * 10
	}
	if err := s.Store.UpdateModule(ctx, tenantID, module); err != nil {
		return NavigationModule{}, err
	}
	if !moved {
		return module, nil
	}
	if err := s.renormalizeRoles(ctx, tenantID); err != nil {
		return NavigationModule{}, err
	}
	return module, nil
}

func (s *Service) renormalizeRoles(ctx context.Context, tenantID string) error {
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return err
	}
	roleIDs, err := s.Store.ListRoleIDs(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, id := range roleIDs {
		if _, err := s.Store.MutateRolePermissions(ctx, id, func(current PermissionMap) (PermissionMap, error) {
			return Normalize(tree, current), nil
		}); err != nil {
			return err
		}
	}
	s.Checker.Invalidate(ctx, roleIDs...)
	return nil
}

func (s *Service) ReorderModules(ctx context.Context, tenantID, parentID string, orderedIDs []string) ([]NavigationModule, error) {
	tree, err := s.Tree(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	orders, err := tree.Reorder(parentID, orderedIDs)
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpdateSortOrders(ctx, tenantID, orders); err != nil {
		return nil, err
	}
	return s.ListModules(ctx, tenantID)
}

func (s *Service) ListUsers(ctx context.Context, tenantID string) ([]UserRole, error) {
	return s.Store.ListUsers(ctx, tenantID)
}

func (s *Service) AssignRole(ctx context.Context, tenantID, userID, roleID string) error {
	if _, err := s.Store.GetRole(ctx, tenantID, roleID); err != nil {
		return err
	}
	return s.Store.SetUserRole(ctx, tenantID, userID, roleID)
}

func siblings(tree *ModuleTree, parentID string) []string {
	if parentID == "" {
		return tree.Roots()
	}
	return tree.Children(parentID)
}
