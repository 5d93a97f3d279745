package recruitment

import "sort"

// Board holds candidate ids per stage id, each column in position order.
type Board map[string][]string

// Clone copies every column.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for stage, ids := range b {
		out[stage] = append([]string(nil), ids...)
	}
	return out
}

// Locate returns the stage and index holding candidateID.
func (b Board) Locate(candidateID string) (string, int, bool) {
	for stage, ids := range b {
		for i, id := range ids {
			if id == candidateID {
				return stage, i, true
			}
		}
	}
	return "", 0, false
}

// MoveCandidate moves candidateID to toStage at position, clamped to the
// column's bounds. Both affected columns are renumbered densely. The input
// board is left untouched.
func MoveCandidate(b Board, candidateID, toStage string, position int) (Board, string, error) {
	if _, ok := b[toStage]; !ok {
		return nil, "", ErrUnknownStage
	}
	from, index, ok := b.Locate(candidateID)
	if !ok {
		return nil, "", ErrNotFound
	}

	out := b.Clone()
	column := out[from]
	out[from] = append(column[:index:index], column[index+1:]...)

	target := out[toStage]
	if position < 0 {
		position = 0
	}
	if position > len(target) {
		position = len(target)
	}
	moved := make([]string, 0, len(target)+1)
	moved = append(moved, target[:position]...)
	moved = append(moved, candidateID)
	moved = append(moved, target[position:]...)
	out[toStage] = moved
	return out, from, nil
}

// Positions maps every candidate in the given columns to its index.
func (b Board) Positions(stages ...string) map[string]int {
	out := map[string]int{}
	for _, stage := range stages {
		for i, id := range b[stage] {
			out[id] = i
		}
	}
	return out
}

// BuildBoard groups candidates into columns for every stage.
func BuildBoard(stages []Stage, candidates []Candidate) Board {
	b := make(Board, len(stages))
	for _, s := range stages {
		b[s.ID] = []string{}
	}
	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	for _, c := range sorted {
		if _, ok := b[c.StageID]; ok {
			b[c.StageID] = append(b[c.StageID], c.ID)
		}
	}
	return b
}

// ReorderStages assigns sort orders to a permutation of the current stages.
func ReorderStages(current []Stage, orderedIDs []string) (map[string]int, error) {
	if len(current) != len(orderedIDs) {
		return nil, ErrNotPermutation
	}
	want := make(map[string]bool, len(current))
	for _, s := range current {
		want[s.ID] = true
	}
	out := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if !want[id] {
			return nil, ErrNotPermutation
		}
		delete(want, id)
		out[id] = (i + 1) * 10
	}
	return out, nil
}

// HiredStage returns the first stage with the hired outcome.
func HiredStage(stages []Stage) (Stage, bool) {
	for _, s := range stages {
		if s.Outcome == OutcomeHired {
			return s, true
		}
	}
	return Stage{}, false
}
