package org

import "sort"

// ValidatePlacement checks that a unit of kind may sit under a parent of
// parentKind. An empty parentKind means the unit is a root, which must be a
// company.
func ValidatePlacement(kind, parentKind Kind) error {
	rank, ok := kind.Rank()
	if !ok {
		return ErrInvalidKind
	}
	if parentKind == "" {
		if kind != KindCompany {
			return ErrInvalidPlacement
		}
		return nil
	}
	parentRank, ok := parentKind.Rank()
	if !ok {
		return ErrInvalidKind
	}
	if rank <= parentRank {
		return ErrInvalidPlacement
	}
	return nil
}

func sortUnits(units []*Node) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].SortOrder != units[j].SortOrder {
			return units[i].SortOrder < units[j].SortOrder
		}
		return units[i].Name < units[j].Name
	})
}

// BuildTree assembles units into a forest. Units whose parent is missing are
// treated as roots.
func BuildTree(units []OrgUnit, headcounts map[string]int) []*Node {
	nodes := make(map[string]*Node, len(units))
	for _, u := range units {
		nodes[u.ID] = &Node{OrgUnit: u, Headcount: headcounts[u.ID], Children: []*Node{}}
	}
	var roots []*Node
	for _, u := range units {
		node := nodes[u.ID]
		parent, ok := nodes[u.ParentID]
		if u.ParentID == "" || !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	var rollUp func(n *Node) int
	rollUp = func(n *Node) int {
		sortUnits(n.Children)
		n.TotalHeadcount = n.Headcount
		for _, c := range n.Children {
			n.TotalHeadcount += rollUp(c)
		}
		return n.TotalHeadcount
	}
	sortUnits(roots)
	for _, r := range roots {
		rollUp(r)
	}
	return roots
}

func childIndex(units []OrgUnit) map[string][]string {
	children := map[string][]string{}
	for _, u := range units {
		children[u.ParentID] = append(children[u.ParentID], u.ID)
	}
	return children
}

// Descendants lists every unit below id, breadth first.
func Descendants(units []OrgUnit, id string) []string {
	children := childIndex(units)
	seen := map[string]bool{id: true}
	var out []string
	queue := append([]string(nil), children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
		queue = append(queue, children[next]...)
	}
	return out
}

// DetectCycle reports whether moving id under newParentID would make a unit
// its own ancestor.
func DetectCycle(units []OrgUnit, id, newParentID string) bool {
	if newParentID == "" {
		return false
	}
	if newParentID == id {
		return true
	}
	for _, d := range Descendants(units, id) {
		if d == newParentID {
			return true
		}
	}
	return false
}

// ReorderSiblings returns new sort orders for the children of parentID
// ("" for roots). orderedIDs must be a permutation of those children.
func ReorderSiblings(units []OrgUnit, parentID string, orderedIDs []string) (map[string]int, error) {
	current := childIndex(units)[parentID]
	if len(current) != len(orderedIDs) {
		return nil, ErrNotPermutation
	}
	want := make(map[string]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	orders := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if !want[id] {
			return nil, ErrNotPermutation
		}
		delete(want, id)
		orders[id] = (i + 1) * 10
	}
	return orders, nil
}

// BuildChart builds the reporting tree under rootID. With an empty rootID
// every employee without a known manager is a root.
func BuildChart(employees []ChartEmployee, rootID string) ([]*ChartNode, error) {
	nodes := make(map[string]*ChartNode, len(employees))
	for _, e := range employees {
		nodes[e.ID] = &ChartNode{ChartEmployee: e, Reports: []*ChartNode{}}
	}
	var roots []*ChartNode
	for _, e := range employees {
		node := nodes[e.ID]
		manager, ok := nodes[e.ManagerID]
		if e.ManagerID == "" || !ok || e.ManagerID == e.ID {
			roots = append(roots, node)
			continue
		}
		manager.Reports = append(manager.Reports, node)
	}
	sortChart := func(list []*ChartNode) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	for _, n := range nodes {
		sortChart(n.Reports)
	}
	sortChart(roots)

	if rootID == "" {
		return roots, nil
	}
	root, ok := nodes[rootID]
	if !ok {
		return nil, ErrNotFound
	}
	return []*ChartNode{root}, nil
}
