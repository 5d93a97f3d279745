package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTree:
//
//	leave
//	  leave.requests
//	    leave.requests.approvals
//	  leave.balances
//	settings
func testTree(t *testing.T) *ModuleTree {
	t.Helper()
	tree, err := NewModuleTree([]NavigationModule{
		{ID: "leave", Key: "leave", Name: "Leave", SortOrder: 10},
		{ID: "leave.requests", Key: "leave.requests", Name: "Requests", ParentID: "leave", SortOrder: 10},
		{ID: "leave.requests.approvals", Key: "leave.requests.approvals", Name: "Approvals", ParentID: "leave.requests", SortOrder: 10},
		{ID: "leave.balances", Key: "leave.balances", Name: "Balances", ParentID: "leave", SortOrder: 20},
		{ID: "settings", Key: "settings", Name: "Settings", SortOrder: 20},
	})
	require.NoError(t, err)
	return tree
}

var (
	none = Grant{}
	v    = Grant{View: true}
	c    = Grant{Create: true}
	vc   = Grant{View: true, Create: true}
	ve   = Grant{View: true, Edit: true}
	vd   = Grant{View: true, Delete: true}
	all  = Grant{View: true, Create: true, Edit: true, Delete: true}
)

func TestApplyAction(t *testing.T) {
	tests := []struct {
		name     string
		current  PermissionMap
		module   string
		action   Action
		enabling bool
		want     PermissionMap
	}{
		{
			name:     "enable edit implies view and reveals parent",
			current:  PermissionMap{},
			module:   "leave.requests",
			action:   ActionEdit,
			enabling: true,
			want:     PermissionMap{"leave.requests": ve, "leave": v},
		},
		{
			name:     "enable delete implies view",
			current:  PermissionMap{"leave": v},
			module:   "leave.balances",
			action:   ActionDelete,
			enabling: true,
			want:     PermissionMap{"leave": v, "leave.balances": vd},
		},
		{
			name:     "enable view on parent leaves children alone",
			current:  PermissionMap{},
			module:   "leave",
			action:   ActionView,
			enabling: true,
			want:     PermissionMap{"leave": v},
		},
		{
			name:     "enable create sets only create on the module",
			current:  PermissionMap{},
			module:   "leave.requests",
			action:   ActionCreate,
			enabling: true,
			want:     PermissionMap{"leave.requests": c, "leave": v},
		},
		{
			name:     "enable deep module reveals every ancestor",
			current:  PermissionMap{},
			module:   "leave.requests.approvals",
			action:   ActionView,
			enabling: true,
			want: PermissionMap{
				"leave.requests.approvals": v,
				"leave.requests":           v,
				"leave":                    v,
			},
		},
		{
			name:     "enable keeps existing ancestor flags",
			current:  PermissionMap{"leave": all},
			module:   "leave.requests",
			action:   ActionView,
			enabling: true,
			want:     PermissionMap{"leave": all, "leave.requests": v},
		},
		{
			name:     "disable view keeps create and drops edit and delete",
			current:  PermissionMap{"leave": v, "leave.requests": all},
			module:   "leave.requests",
			action:   ActionView,
			enabling: false,
			want:     PermissionMap{"leave": v, "leave.requests": c},
		},
		{
			name: "disable view clears every descendant",
			current: PermissionMap{
				"leave":                    all,
				"leave.requests":           ve,
				"leave.requests.approvals": all,
				"leave.balances":           vc,
				"settings":                 v,
			},
			module:   "leave",
			action:   ActionView,
			enabling: false,
			want:     PermissionMap{"leave": c, "settings": v},
		},
		{
			name:     "disable view on view-only module removes the entry",
			current:  PermissionMap{"settings": v},
			module:   "settings",
			action:   ActionView,
			enabling: false,
			want:     PermissionMap{},
		},
		{
			name:     "disable edit clears only edit",
			current:  PermissionMap{"leave": v, "leave.requests": ve},
			module:   "leave.requests",
			action:   ActionEdit,
			enabling: false,
			want:     PermissionMap{"leave": v, "leave.requests": v},
		},
		{
			name:     "disable delete clears only delete",
			current:  PermissionMap{"leave": v, "leave.requests": all},
			module:   "leave.requests",
			action:   ActionDelete,
			enabling: false,
			want:     PermissionMap{"leave": v, "leave.requests": Grant{View: true, Create: true, Edit: true}},
		},
		{
			name:     "disable edit does not touch descendants",
			current:  PermissionMap{"leave": ve, "leave.requests": v},
			module:   "leave",
			action:   ActionEdit,
			enabling: false,
			want:     PermissionMap{"leave": v, "leave.requests": v},
		},
		{
			name:     "disable create on create-only module removes the entry",
			current:  PermissionMap{"leave": v, "leave.requests": c},
			module:   "leave.requests",
			action:   ActionCreate,
			enabling: false,
			want:     PermissionMap{"leave": v},
		},
		{
			name:     "disable on absent module is a no-op",
			current:  PermissionMap{"leave": v},
			module:   "settings",
			action:   ActionDelete,
			enabling: false,
			want:     PermissionMap{"leave": v},
		},
		{
			name:     "re-enabling an enabled flag is a no-op",
			current:  PermissionMap{"leave": ve},
			module:   "leave",
			action:   ActionEdit,
			enabling: true,
			want:     PermissionMap{"leave": ve},
		},
	}

	tree := testTree(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyAction(tree, tc.current, tc.module, tc.action, tc.enabling)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyActionLeavesInputUntouched(t *testing.T) {
	tree := testTree(t)
	current := PermissionMap{"leave": all, "leave.requests": all}

	_, err := ApplyAction(tree, current, "leave", ActionView, false)
	require.NoError(t, err)
	assert.Equal(t, PermissionMap{"leave": all, "leave.requests": all}, current)
}

func TestApplyActionRejectsUnknownInput(t *testing.T) {
	tree := testTree(t)

	_, err := ApplyAction(tree, PermissionMap{}, "payroll", ActionView, true)
	assert.ErrorIs(t, err, ErrUnknownModule)

	_, err = ApplyAction(tree, PermissionMap{}, "leave", Action("approve"), true)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestApplyActionNeverLeavesEditWithoutView(t *testing.T) {
	tree := testTree(t)
	perms := PermissionMap{}
	steps := []struct {
		module   string
		action   Action
		enabling bool
	}{
		{"leave.requests", ActionEdit, true},
		{"leave.requests.approvals", ActionDelete, true},
		{"leave", ActionView, false},
		{"leave.requests", ActionCreate, true},
		{"leave.requests", ActionView, false},
		{"leave.balances", ActionEdit, true},
		{"leave.balances", ActionView, false},
	}
	for _, step := range steps {
		var err error
		perms, err = ApplyAction(tree, perms, step.module, step.action, step.enabling)
		require.NoError(t, err)
		for id, g := range perms {
			assert.False(t, g.Empty(), "empty grant kept for %s", id)
			if g.Edit || g.Delete {
				assert.True(t, g.View, "%s has edit/delete without view", id)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	tree := testTree(t)
	got := Normalize(tree, PermissionMap{
		"leave":                    v,
		"leave.requests":           Grant{Edit: true},
		"leave.requests.approvals": c,
		"leave.balances":           none,
		"settings.hidden":          all,
	})
	assert.Equal(t, PermissionMap{
		"leave":                    v,
		"leave.requests":           ve,
		"leave.requests.approvals": c,
	}, got)
}

func TestNormalizeDropsGrantsUnderInvisibleParent(t *testing.T) {
	tree := testTree(t)
	got := Normalize(tree, PermissionMap{
		"leave":                    c,
		"leave.requests":           all,
		"leave.requests.approvals": v,
		"settings":                 v,
	})
	assert.Equal(t, PermissionMap{"leave": c, "settings": v}, got)
}

func TestPermissionKeys(t *testing.T) {
	tree := testTree(t)
	keys := PermissionKeys(tree, PermissionMap{"leave": v, "leave.requests": Grant{View: true, Create: true, Edit: true}})
	assert.Equal(t, []string{
		"leave.requests:create",
		"leave.requests:edit",
		"leave.requests:view",
		"leave:view",
	}, keys)
	assert.True(t, Allows(PermissionMap{"leave": v}, "leave", ActionView))
	assert.False(t, Allows(PermissionMap{"leave": v}, "leave", ActionEdit))
}

func TestVisibleTree(t *testing.T) {
	tree := testTree(t)
	menu := VisibleTree(tree, PermissionMap{
		"leave":                    v,
		"leave.balances":           v,
		"leave.requests":           c,
		"leave.requests.approvals": v,
		"settings":                 v,
	})
	require.Len(t, menu, 2)
	assert.Equal(t, "leave", menu[0].Key)
	assert.Equal(t, "settings", menu[1].Key)
	require.Len(t, menu[0].Children, 1)
	assert.Equal(t, "leave.balances", menu[0].Children[0].Key)
}
