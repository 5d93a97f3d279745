package core

import "hrconsole/internal/domain/auth"

type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeTeam Scope = "team"
	ScopeSelf Scope = "self"
)

// Viewer is the caller as seen by employee reads.
type Viewer struct {
	User             auth.UserContext
	EmployeeID       string
	CanEditEmployees bool
	HasReports       bool
}

func (v Viewer) privileged() bool {
	return v.CanEditEmployees || auth.IsHR(v.User.RoleName)
}

// ScopeFor decides which employees v may read: everyone for editors and HR,
// direct reports plus self for anyone managing people (whatever their role)
// and for the Manager role, otherwise only self.
func ScopeFor(v Viewer) Scope {
	switch {
	case v.privileged():
		return ScopeAll
	case v.HasReports || v.User.RoleName == auth.RoleManager:
		return ScopeTeam
	default:
		return ScopeSelf
	}
}

// InScope reports whether emp is readable under v's scope.
func InScope(v Viewer, emp Employee) bool {
	switch ScopeFor(v) {
	case ScopeAll:
		return true
	case ScopeTeam:
		return v.EmployeeID != "" && (emp.ID == v.EmployeeID || emp.ManagerID == v.EmployeeID)
	default:
		return v.EmployeeID != "" && emp.ID == v.EmployeeID
	}
}
