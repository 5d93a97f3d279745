package org

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUnits() []OrgUnit {
	return []OrgUnit{
		{ID: "co", Name: "Acme", Kind: KindCompany},
		{ID: "eng", Name: "Engineering", Kind: KindDivision, ParentID: "co", SortOrder: 20},
		{ID: "ops", Name: "Operations", Kind: KindDivision, ParentID: "co", SortOrder: 10},
		{ID: "plat", Name: "Platform", Kind: KindDepartment, ParentID: "eng", SortOrder: 10},
		{ID: "core", Name: "Core", Kind: KindTeam, ParentID: "plat", SortOrder: 10},
	}
}

func TestValidatePlacement(t *testing.T) {
	cases := []struct {
		kind, parent Kind
		want         error
	}{
		{KindCompany, "", nil},
		{KindDivision, "", ErrInvalidPlacement},
		{KindDivision, KindCompany, nil},
		{KindTeam, KindCompany, nil},
		{KindDepartment, KindDivision, nil},
		{KindDivision, KindDivision, ErrInvalidPlacement},
		{KindCompany, KindTeam, ErrInvalidPlacement},
		{"squad", KindCompany, ErrInvalidKind},
		{KindTeam, "squad", ErrInvalidKind},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind)+"/"+string(tc.parent), func(t *testing.T) {
			assert.ErrorIs(t, ValidatePlacement(tc.kind, tc.parent), tc.want)
		})
	}
}

func TestBuildTreeRollsUpHeadcount(t *testing.T) {
	roots := BuildTree(sampleUnits(), map[string]int{"co": 1, "eng": 2, "plat": 3, "core": 4, "ops": 5})

	require.Len(t, roots, 1)
	co := roots[0]
	assert.Equal(t, 15, co.TotalHeadcount)
	assert.Equal(t, 1, co.Headcount)
	require.Len(t, co.Children, 2)
	assert.Equal(t, "ops", co.Children[0].ID)
	assert.Equal(t, "eng", co.Children[1].ID)
	assert.Equal(t, 9, co.Children[1].TotalHeadcount)
	assert.Equal(t, 4, co.Children[1].Children[0].Children[0].TotalHeadcount)
}

func TestBuildTreeOrphansBecomeRoots(t *testing.T) {
	roots := BuildTree([]OrgUnit{{ID: "lost", Name: "Lost", Kind: KindTeam, ParentID: "gone"}}, nil)
	require.Len(t, roots, 1)
	assert.Empty(t, roots[0].Children)
}

func TestDescendantsAndDetectCycle(t *testing.T) {
	units := sampleUnits()
	assert.ElementsMatch(t, []string{"plat", "core"}, Descendants(units, "eng"))
	assert.Empty(t, Descendants(units, "core"))

	assert.True(t, DetectCycle(units, "eng", "core"))
	assert.True(t, DetectCycle(units, "eng", "eng"))
	assert.False(t, DetectCycle(units, "plat", "ops"))
	assert.False(t, DetectCycle(units, "plat", ""))
}

func TestReorderSiblings(t *testing.T) {
	orders, err := ReorderSiblings(sampleUnits(), "co", []string{"eng", "ops"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"eng": 10, "ops": 20}, orders)

	_, err = ReorderSiblings(sampleUnits(), "co", []string{"eng"})
	assert.ErrorIs(t, err, ErrNotPermutation)
	_, err = ReorderSiblings(sampleUnits(), "co", []string{"eng", "plat"})
	assert.ErrorIs(t, err, ErrNotPermutation)
}

func TestBuildChart(t *testing.T) {
	employees := []ChartEmployee{
		{ID: "ceo", Name: "Cleo"},
		{ID: "b", Name: "Bea", ManagerID: "ceo"},
		{ID: "a", Name: "Abe", ManagerID: "ceo"},
		{ID: "c", Name: "Cy", ManagerID: "a"},
		{ID: "x", Name: "Xi", ManagerID: "departed"},
	}

	forest, err := BuildChart(employees, "")
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, "ceo", forest[0].ID)
	assert.Equal(t, "x", forest[1].ID)
	require.Len(t, forest[0].Reports, 2)
	assert.Equal(t, "a", forest[0].Reports[0].ID)
	assert.Equal(t, "c", forest[0].Reports[0].Reports[0].ID)

	sub, err := BuildChart(employees, "a")
	require.NoError(t, err)
	require.Len(t, sub, 1)
	assert.Len(t, sub[0].Reports, 1)

	_, err = BuildChart(employees, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
