package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModuleTreeRejectsBrokenParents(t *testing.T) {
	_, err := NewModuleTree([]NavigationModule{{ID: "a", Key: "a", ParentID: "missing"}})
	assert.ErrorIs(t, err, ErrUnknownModule)

	_, err = NewModuleTree([]NavigationModule{
		{ID: "a", Key: "a", ParentID: "b"},
		{ID: "b", Key: "b", ParentID: "a"},
	})
	assert.ErrorIs(t, err, ErrCycle)
}

func TestModuleTreeOrdering(t *testing.T) {
	tree, err := NewModuleTree([]NavigationModule{
		{ID: "z", Key: "z", Name: "Zeta", SortOrder: 10},
		{ID: "a", Key: "a", Name: "Alpha", SortOrder: 10},
		{ID: "first", Key: "first", Name: "Last by name", SortOrder: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "a", "z"}, tree.Roots())
}

func TestAncestorsAndDescendants(t *testing.T) {
	tree := testTree(t)
	assert.Equal(t, []string{"leave.requests", "leave"}, tree.Ancestors("leave.requests.approvals"))
	assert.Empty(t, tree.Ancestors("leave"))
	assert.Equal(t, []string{"leave.requests", "leave.requests.approvals", "leave.balances"}, tree.Descendants("leave"))
}

func TestCheckMove(t *testing.T) {
	tree := testTree(t)
	assert.NoError(t, tree.CheckMove("leave.balances", "settings"))
	assert.NoError(t, tree.CheckMove("leave.requests", ""))
	assert.ErrorIs(t, tree.CheckMove("leave", "leave"), ErrCycle)
	assert.ErrorIs(t, tree.CheckMove("leave", "leave.requests.approvals"), ErrCycle)
	assert.ErrorIs(t, tree.CheckMove("leave", "nowhere"), ErrUnknownModule)
	assert.ErrorIs(t, tree.CheckMove("nowhere", ""), ErrUnknownModule)
}

func TestReorder(t *testing.T) {
	tree := testTree(t)

	orders, err := tree.Reorder("leave", []string{"leave.balances", "leave.requests"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"leave.balances": 10, "leave.requests": 20}, orders)

	orders, err = tree.Reorder("", []string{"settings", "leave"})
	require.NoError(t, err)
	assert.Equal(t, 10, orders["settings"])

	_, err = tree.Reorder("leave", []string{"leave.balances"})
	assert.ErrorIs(t, err, ErrNotPermutation)

	_, err = tree.Reorder("leave", []string{"leave.balances", "leave.balances"})
	assert.ErrorIs(t, err, ErrNotPermutation)

	_, err = tree.Reorder("leave", []string{"leave.balances", "settings"})
	assert.ErrorIs(t, err, ErrNotPermutation)

	_, err = tree.Reorder("ghost", nil)
	assert.ErrorIs(t, err, ErrUnknownModule)
}
