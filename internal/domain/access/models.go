package access

import (
	"errors"
	"time"
)

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

var Actions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}

func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionCreate, ActionEdit, ActionDelete:
		return true
	}
	return false
}

var (
	ErrUnknownModule  = errors.New("unknown module")
	ErrUnknownAction  = errors.New("unknown action")
	ErrCycle          = errors.New("module cannot be moved under itself or its descendants")
	ErrNotPermutation = errors.New("ordered ids must list every sibling exactly once")
	ErrNotFound       = errors.New("not found")
	ErrSystemRole     = errors.New("system roles cannot be deleted or renamed")
	ErrRoleInUse      = errors.New("role is assigned to users")
	ErrConflict       = errors.New("already exists")
)

// Grant is the set of actions a role holds on one module.
type Grant struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

func (g Grant) Empty() bool {
	return !g.View && !g.Create && !g.Edit && !g.Delete
}

func (g Grant) Has(action Action) bool {
	switch action {
	case ActionView:
		return g.View
	case ActionCreate:
		return g.Create
	case ActionEdit:
		return g.Edit
	case ActionDelete:
		return g.Delete
	}
	return false
}

func (g Grant) set(action Action, value bool) Grant {
	switch action {
	case ActionView:
		g.View = value
	case ActionCreate:
		g.Create = value
	case ActionEdit:
		g.Edit = value
	case ActionDelete:
		g.Delete = value
	}
	return g
}

// Actions lists the granted actions in canonical order.
func (g Grant) Actions() []Action {
	out := make([]Action, 0, 4)
	for _, a := range Actions {
		if g.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// PermissionMap is keyed by module ID. Modules without any grant are absent.
type PermissionMap map[string]Grant

func (p PermissionMap) Clone() PermissionMap {
	out := make(PermissionMap, len(p))
	for id, g := range p {
		out[id] = g
	}
	return out
}

func (p PermissionMap) put(moduleID string, g Grant) {
	if g.Empty() {
		delete(p, moduleID)
		return
	}
	p[moduleID] = g
}

type NavigationModule struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parentId"`
	SortOrder int       `json:"sortOrder"`
	Path      string    `json:"path"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"createdAt"`
}

type Role struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenantId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	IsSystem    bool          `json:"isSystem"`
	UserCount   int           `json:"userCount"`
	Permissions PermissionMap `json:"permissions,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type MenuNode struct {
	ID       string     `json:"id"`
	Key      string     `json:"key"`
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Icon     string     `json:"icon"`
	Grant    Grant      `json:"grant"`
	Children []MenuNode `json:"children,omitempty"`
}

type UserRole struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Status   string `json:"status"`
	RoleID   string `json:"roleId"`
	RoleName string `json:"roleName"`
}
