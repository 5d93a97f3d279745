package access

import (
	"fmt"
	"sort"
)

// ModuleTree indexes navigation modules by id, key and parent.
type ModuleTree struct {
	byID     map[string]NavigationModule
	byKey    map[string]string
	children map[string][]string
	roots    []string
}

// NewModuleTree builds the index. Every parent must exist and the parent
// chain must be acyclic.
func NewModuleTree(modules []NavigationModule) (*ModuleTree, error) {
	t := &ModuleTree{
		byID:     make(map[string]NavigationModule, len(modules)),
		byKey:    make(map[string]string, len(modules)),
		children: map[string][]string{},
	}
	for _, m := range modules {
		t.byID[m.ID] = m
		if m.Key != "" {
			t.byKey[m.Key] = m.ID
		}
	}
	for _, m := range modules {
		if m.ParentID == "" {
			t.roots = append(t.roots, m.ID)
			continue
		}
		if _, ok := t.byID[m.ParentID]; !ok {
			return nil, fmt.Errorf("module %s: parent %s: %w", m.Key, m.ParentID, ErrUnknownModule)
		}
		t.children[m.ParentID] = append(t.children[m.ParentID], m.ID)
	}
	for _, m := range modules {
		seen := map[string]bool{m.ID: true}
		for parent := m.ParentID; parent != ""; parent = t.byID[parent].ParentID {
			if seen[parent] {
				return nil, fmt.Errorf("module %s: %w", m.Key, ErrCycle)
			}
			seen[parent] = true
		}
	}
	t.sortIDs(t.roots)
	for parent := range t.children {
		t.sortIDs(t.children[parent])
	}
	return t, nil
}

func (t *ModuleTree) sortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := t.byID[ids[i]], t.byID[ids[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Name < b.Name
	})
}

func (t *ModuleTree) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

func (t *ModuleTree) Module(id string) (NavigationModule, bool) {
	m, ok := t.byID[id]
	return m, ok
}

func (t *ModuleTree) IDForKey(key string) (string, bool) {
	id, ok := t.byKey[key]
	return id, ok
}

func (t *ModuleTree) Roots() []string {
	return append([]string(nil), t.roots...)
}

func (t *ModuleTree) Children(id string) []string {
	return append([]string(nil), t.children[id]...)
}

// Ancestors returns the parent chain from the immediate parent to the root.
func (t *ModuleTree) Ancestors(id string) []string {
	var out []string
	for parent := t.byID[id].ParentID; parent != ""; parent = t.byID[parent].ParentID {
		out = append(out, parent)
	}
	return out
}

// Descendants returns every module below id in depth-first order.
func (t *ModuleTree) Descendants(id string) []string {
	var out []string
	stack := t.Children(id)
	for len(stack) > 0 {
		next := stack[0]
		stack = stack[1:]
		out = append(out, next)
		stack = append(t.Children(next), stack...)
	}
	return out
}

func (t *ModuleTree) Modules() []NavigationModule {
	out := make([]NavigationModule, 0, len(t.byID))
	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			out = append(out, t.byID[id])
			walk(t.children[id])
		}
	}
	walk(t.roots)
	return out
}

// CheckMove validates re-parenting moduleID under newParentID ("" for root).
func (t *ModuleTree) CheckMove(moduleID, newParentID string) error {
	if !t.Has(moduleID) {
		return ErrUnknownModule
	}
	if newParentID == "" {
		return nil
	}
	if !t.Has(newParentID) {
		return ErrUnknownModule
	}
	if newParentID == moduleID {
		return ErrCycle
	}
	for _, d := range t.Descendants(moduleID) {
		if d == newParentID {
			return ErrCycle
		}
	}
	return nil
}

// Reorder assigns new sort orders to the children of parentID ("" for
// roots). orderedIDs must be a permutation of the current children.
func (t *ModuleTree) Reorder(parentID string, orderedIDs []string) (map[string]int, error) {
	current := t.roots
	if parentID != "" {
		if !t.Has(parentID) {
			return nil, ErrUnknownModule
		}
		current = t.children[parentID]
	}
	if err := checkPermutation(current, orderedIDs); err != nil {
		return nil, err
	}
	return SortOrders(orderedIDs), nil
}

// SortOrders spaces positions by ten so single inserts do not renumber siblings.
func SortOrders(orderedIDs []string) map[string]int {
	out := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		out[id] = (i + 1) * 10
	}
	return out
}

func checkPermutation(current, ordered []string) error {
	if len(current) != len(ordered) {
		return ErrNotPermutation
	}
	want := make(map[string]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	for _, id := range ordered {
		if !want[id] {
			return ErrNotPermutation
		}
		delete(want, id)
	}
	return nil
}
