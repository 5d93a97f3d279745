package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogLoads(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, r := range catalog.Roles {
		names[r.Name] = true
	}
	for _, want := range []string{"Administrator", "HR", "Manager", "Employee"} {
		assert.True(t, names[want], "missing role %s", want)
	}

	flat := catalog.Flatten()
	require.NotEmpty(t, flat)
	assert.Equal(t, "dashboard", flat[0].Key)
	assert.Equal(t, 10, flat[0].SortOrder)
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	_, err := ParseCatalog([]byte("modules:\n  - key: a\n    name: A\n  - key: a\n    name: B\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("modules:\n  - key: a\n    name: A\nroles:\n  - name: R\n    grants:\n      b: [view]\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("modules:\n  - key: a\n    name: A\nroles:\n  - name: R\n    grants:\n      a: [approve]\n"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestRoleGrants(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
modules:
  - key: leave
    name: Leave
    children:
      - key: leave.requests
        name: Requests
  - key: settings
    name: Settings
roles:
  - name: Admin
    grants:
      "*": [view, edit]
  - name: Orphan
    grants:
      leave.requests: [create]
`))
	require.NoError(t, err)

	var modules []NavigationModule
	for _, m := range catalog.Flatten() {
		m.ID = m.Key
		modules = append(modules, m)
	}
	tree, err := NewModuleTree(modules)
	require.NoError(t, err)

	admin := RoleGrants(tree, catalog.Roles[0])
	assert.Len(t, admin, 3)
	assert.Equal(t, ve, admin["leave.requests"])

	// leave itself is not visible, so the child grant is dropped.
	assert.Empty(t, RoleGrants(tree, catalog.Roles[1]))
}
