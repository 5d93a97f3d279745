package access

import "sort"

// ApplyAction toggles one action on one module and returns the resulting map.
// The input map is left untouched.
//
// Granting edit or delete also grants view. Granting anything makes every
// ancestor visible, but children are never granted implicitly. Revoking view
// also revokes edit and delete (create survives) and clears every descendant.
func ApplyAction(tree *ModuleTree, perms PermissionMap, moduleID string, action Action, enabling bool) (PermissionMap, error) {
	if !tree.Has(moduleID) {
		return nil, ErrUnknownModule
	}
	if !action.Valid() {
		return nil, ErrUnknownAction
	}

	out := perms.Clone()
	grant := out[moduleID].set(action, enabling)

	if enabling {
		if action == ActionEdit || action == ActionDelete {
			grant.View = true
		}
		out.put(moduleID, grant)
		for _, ancestor := range tree.Ancestors(moduleID) {
			out.put(ancestor, out[ancestor].set(ActionView, true))
		}
		return out, nil
	}

	if action == ActionView {
		grant.Edit = false
		grant.Delete = false
		for _, descendant := range tree.Descendants(moduleID) {
			delete(out, descendant)
		}
	}
	out.put(moduleID, grant)
	return out, nil
}

// Normalize coerces an arbitrary map into one ApplyAction could have
// produced: unknown modules are dropped, edit/delete imply view, and grants
// below a module that is not visible are cleared.
func Normalize(tree *ModuleTree, perms PermissionMap) PermissionMap {
	out := PermissionMap{}
	for id, g := range perms {
		if !tree.Has(id) {
			continue
		}
		if g.Edit || g.Delete {
			g.View = true
		}
		out.put(id, g)
	}
	for id := range out {
		for _, ancestor := range tree.Ancestors(id) {
			if !out[ancestor].View {
				delete(out, id)
				break
			}
		}
	}
	return out
}

func Allows(perms PermissionMap, moduleID string, action Action) bool {
	return perms[moduleID].Has(action)
}

// PermissionKey is the middleware form of a grant, e.g. "leave.requests:edit".
func PermissionKey(moduleKey string, action Action) string {
	return moduleKey + ":" + string(action)
}

// PermissionKeys flattens perms into sorted middleware keys.
func PermissionKeys(tree *ModuleTree, perms PermissionMap) []string {
	var out []string
	for id, g := range perms {
		m, ok := tree.Module(id)
		if !ok {
			continue
		}
		for _, a := range g.Actions() {
			out = append(out, PermissionKey(m.Key, a))
		}
	}
	sort.Strings(out)
	return out
}

// VisibleTree returns the navigation menu for perms: modules with view whose
// ancestors are all visible, in sort order.
func VisibleTree(tree *ModuleTree, perms PermissionMap) []MenuNode {
	var build func(ids []string) []MenuNode
	build = func(ids []string) []MenuNode {
		var nodes []MenuNode
		for _, id := range ids {
			g := perms[id]
			if !g.View {
				continue
			}
			m, _ := tree.Module(id)
			nodes = append(nodes, MenuNode{
				ID:       m.ID,
				Key:      m.Key,
				Name:     m.Name,
				Path:     m.Path,
				Icon:     m.Icon,
				Grant:    g,
				Children: build(tree.Children(id)),
			})
		}
		return nodes
	}
	return build(tree.Roots())
}
