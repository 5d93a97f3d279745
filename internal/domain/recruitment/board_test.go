package recruitment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBoard() Board {
	return Board{
		"applied":   {"a", "b", "c"},
		"interview": {"d"},
		"hired":     {},
	}
}

func TestMoveCandidateAcrossColumns(t *testing.T) {
	in := sampleBoard()
	out, from, err := MoveCandidate(in, "b", "interview", 0)
	require.NoError(t, err)
	assert.Equal(t, "applied", from)
	assert.Equal(t, []string{"a", "c"}, out["applied"])
	assert.Equal(t, []string{"b", "d"}, out["interview"])
	assert.Equal(t, []string{"a", "b", "c"}, in["applied"], "input untouched")
}

func TestMoveCandidateClampsPosition(t *testing.T) {
	out, _, err := MoveCandidate(sampleBoard(), "a", "interview", 99)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, out["interview"])

	out, _, err = MoveCandidate(sampleBoard(), "d", "hired", -3)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, out["hired"])
	assert.Empty(t, out["interview"])
}

func TestMoveCandidateWithinColumn(t *testing.T) {
	out, from, err := MoveCandidate(sampleBoard(), "a", "applied", 2)
	require.NoError(t, err)
	assert.Equal(t, "applied", from)
	assert.Equal(t, []string{"b", "c", "a"}, out["applied"])

	pos := out.Positions("applied")
	assert.Equal(t, map[string]int{"b": 0, "c": 1, "a": 2}, pos)
}

func TestMoveCandidateErrors(t *testing.T) {
	_, _, err := MoveCandidate(sampleBoard(), "a", "offer", 0)
	assert.ErrorIs(t, err, ErrUnknownStage)
	_, _, err = MoveCandidate(sampleBoard(), "zz", "hired", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildBoard(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stages := []Stage{{ID: "s1"}, {ID: "s2"}}
	board := BuildBoard(stages, []Candidate{
		{ID: "x", StageID: "s1", Position: 1, CreatedAt: base},
		{ID: "y", StageID: "s1", Position: 0, CreatedAt: base},
		{ID: "z", StageID: "s1", Position: 1, CreatedAt: base.Add(-time.Hour)},
		{ID: "orphan", StageID: "gone"},
	})
	assert.Equal(t, []string{"y", "z", "x"}, board["s1"])
	assert.Equal(t, []string{}, board["s2"])
	_, ok := board["gone"]
	assert.False(t, ok)
}

func TestReorderStages(t *testing.T) {
	stages := []Stage{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	orders, err := ReorderStages(stages, []string{"c", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"c": 10, "a": 20, "b": 30}, orders)

	_, err = ReorderStages(stages, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrNotPermutation)
	_, err = ReorderStages(stages, []string{"a", "a", "b"})
	assert.ErrorIs(t, err, ErrNotPermutation)
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages()
	require.Len(t, stages, 6)
	assert.Equal(t, "Applied", stages[0].Name)
	assert.False(t, stages[0].Terminal())
	hired, ok := HiredStage(stages)
	require.True(t, ok)
	assert.Equal(t, "Hired", hired.Name)
	assert.True(t, stages[5].Terminal())
	assert.Equal(t, OutcomeRejected, stages[5].Outcome)
}
