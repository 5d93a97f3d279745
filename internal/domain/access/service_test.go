package access

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/platform/cache"
)

type fakeStore struct {
	mu      sync.Mutex
	modules []NavigationModule
	roles   map[string]Role
	perms   map[string]PermissionMap
	keyHits int
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	tree := testTree(t)
	return &fakeStore{
		modules: tree.Modules(),
		roles: map[string]Role{
			"admin": {ID: "admin", Name: AdministratorRole, IsSystem: true},
			"staff": {ID: "staff", Name: "Staff"},
		},
		perms: map[string]PermissionMap{
			"admin": {},
			"staff": {"leave": v, "leave.requests": vc},
		},
	}
}

func (f *fakeStore) ListModules(context.Context, string) ([]NavigationModule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]NavigationModule(nil), f.modules...), nil
}

func (f *fakeStore) CreateModule(_ context.Context, _ string, m NavigationModule) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = m.Key
	f.modules = append(f.modules, m)
	return m.ID, nil
}

func (f *fakeStore) UpdateModule(_ context.Context, _ string, m NavigationModule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.modules {
		if f.modules[i].ID == m.ID {
			f.modules[i] = m
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) UpdateSortOrders(_ context.Context, _ string, orders map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.modules {
		if order, ok := orders[f.modules[i].ID]; ok {
			f.modules[i].SortOrder = order
		}
	}
	return nil
}

func (f *fakeStore) ListRoles(context.Context, string) ([]Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Role
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) GetRole(_ context.Context, _, roleID string) (Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[roleID]
	if !ok {
		return Role{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) CreateRole(_ context.Context, tenantID string, role Role) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.roles {
		if existing.Name == role.Name {
			return "", errDuplicateRole
		}
	}
	role.ID = "role-" + role.Name
	role.TenantID = tenantID
	f.perms[role.ID] = role.Permissions.Clone()
	role.Permissions = nil
	f.roles[role.ID] = role
	return role.ID, nil
}

func (f *fakeStore) UpdateRole(_ context.Context, _, roleID, name, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.roles[roleID]
	r.Name, r.Description = name, description
	f.roles[roleID] = r
	return nil
}

func (f *fakeStore) DeleteRole(_ context.Context, _, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roles, roleID)
	delete(f.perms, roleID)
	return nil
}

func (f *fakeStore) ListRoleIDs(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.roles {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) RolePermissions(_ context.Context, roleID string) (PermissionMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perms[roleID].Clone(), nil
}

func (f *fakeStore) MutateRolePermissions(_ context.Context, roleID string, fn func(PermissionMap) (PermissionMap, error)) (PermissionMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.roles[roleID]; !ok {
		return nil, ErrNotFound
	}
	next, err := fn(f.perms[roleID].Clone())
	if err != nil {
		return nil, err
	}
	f.perms[roleID] = next
	return next, nil
}

func (f *fakeStore) PermissionKeys(_ context.Context, roleID string) ([]string, error) {
	f.mu.Lock()
	modules := append([]NavigationModule(nil), f.modules...)
	perms := f.perms[roleID].Clone()
	f.keyHits++
	f.mu.Unlock()
	tree, err := NewModuleTree(modules)
	if err != nil {
		return nil, err
	}
	return PermissionKeys(tree, perms), nil
}

func (f *fakeStore) ListUsers(context.Context, string) ([]UserRole, error) { return nil, nil }

func (f *fakeStore) SetUserRole(context.Context, string, string, string) error { return nil }

var errDuplicateRole = errors.New("duplicate role name")

func newTestService(t *testing.T) (*Service, *fakeStore) {
	store := newFakeStore(t)
	return NewService(store, NewChecker(store, cache.NewMemory(), time.Minute)), store
}

func TestServiceApplyActionPersistsAndInvalidates(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	allowed, err := svc.Checker.HasPermission(ctx, "staff", "leave.requests:edit")
	require.NoError(t, err)
	assert.False(t, allowed)

	before, after, err := svc.ApplyAction(ctx, "t1", "staff", "leave.requests", ActionEdit, true)
	require.NoError(t, err)
	assert.Equal(t, vc, before["leave.requests"])
	assert.Equal(t, Grant{View: true, Create: true, Edit: true}, after["leave.requests"])

	allowed, err = svc.Checker.HasPermission(ctx, "staff", "leave.requests:edit")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2, store.keyHits)
}

func TestServiceApplyActionUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.ApplyAction(context.Background(), "t1", "ghost", "leave", ActionView, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceReplacePermissionsNormalizes(t *testing.T) {
	svc, _ := newTestService(t)
	_, after, err := svc.ReplacePermissions(context.Background(), "t1", "staff", PermissionMap{
		"leave":          v,
		"leave.balances": Grant{Delete: true},
		"settings":       none,
	})
	require.NoError(t, err)
	assert.Equal(t, PermissionMap{"leave": v, "leave.balances": vd}, after)

	_, _, err = svc.ReplacePermissions(context.Background(), "t1", "staff", PermissionMap{"payroll": v})
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestServiceCreateRoleStoresNormalizedMap(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	role, err := svc.CreateRole(ctx, "t1", RoleInput{
		Name:        " Auditor ",
		Permissions: PermissionMap{"leave": v, "leave.balances": Grant{Delete: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Auditor", role.Name)
	assert.Equal(t, "t1", role.TenantID)
	assert.Equal(t, PermissionMap{"leave": v, "leave.balances": vd}, role.Permissions)
	assert.Equal(t, role.Permissions, store.perms[role.ID])
}

func TestServiceCreateRoleRejectsUnknownModule(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.CreateRole(ctx, "t1", RoleInput{Name: "Auditor", Permissions: PermissionMap{"leave": v, "payroll": v}})
	require.ErrorIs(t, err, ErrUnknownModule)
	assert.Len(t, store.roles, 2, "nothing is created")

	role, err := svc.CreateRole(ctx, "t1", RoleInput{Name: "Auditor", Permissions: PermissionMap{"leave": v}})
	require.NoError(t, err)
	assert.Equal(t, PermissionMap{"leave": v}, role.Permissions)
}

func TestServiceDeleteRoleGuards(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.DeleteRole(ctx, "t1", "admin")
	assert.ErrorIs(t, err, ErrSystemRole)

	store.roles["staff"] = Role{ID: "staff", Name: "Staff", UserCount: 2}
	_, err = svc.DeleteRole(ctx, "t1", "staff")
	assert.ErrorIs(t, err, ErrRoleInUse)

	store.roles["staff"] = Role{ID: "staff", Name: "Staff"}
	_, err = svc.DeleteRole(ctx, "t1", "staff")
	assert.NoError(t, err)
}

func TestServiceUpdateRoleRefusesSystemRename(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateRole(context.Background(), "t1", "admin", "Root", "")
	assert.ErrorIs(t, err, ErrSystemRole)

	role, err := svc.UpdateRole(context.Background(), "t1", "admin", AdministratorRole, "Everything")
	require.NoError(t, err)
	assert.Equal(t, "Everything", role.Description)
}

func TestServiceCreateModuleGrantsAdministrator(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	created, err := svc.CreateModule(ctx, "t1", NavigationModule{Key: "leave.reports", Name: "Reports", ParentID: "leave"})
	require.NoError(t, err)
	assert.Equal(t, 30, created.SortOrder)
	assert.Equal(t, all, store.perms["admin"]["leave.reports"])
	assert.True(t, store.perms["admin"]["leave"].View)

	_, err = svc.CreateModule(ctx, "t1", NavigationModule{Key: "leave.reports", Name: "Again"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestServiceMoveModuleRenormalizes(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	store.perms["staff"] = PermissionMap{"leave": v, "leave.balances": v}

	_, err := svc.UpdateModule(ctx, "t1", NavigationModule{ID: "leave.balances", Name: "Balances", ParentID: "settings"})
	require.NoError(t, err)
	assert.Equal(t, PermissionMap{"leave": v}, store.perms["staff"])

	_, err = svc.UpdateModule(ctx, "t1", NavigationModule{ID: "leave", Name: "Leave", ParentID: "leave.requests"})
	assert.ErrorIs(t, err, ErrCycle)
}

func TestServiceReorderModules(t *testing.T) {
	svc, _ := newTestService(t)
	modules, err := svc.ReorderModules(context.Background(), "t1", "", []string{"settings", "leave"})
	require.NoError(t, err)
	assert.Equal(t, "settings", modules[0].ID)
}

func TestServiceNavigation(t *testing.T) {
	svc, _ := newTestService(t)
	menu, err := svc.Navigation(context.Background(), "t1", "staff")
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "leave.requests", menu[0].Children[0].Key)
}
