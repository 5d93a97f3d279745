package auth

// System role names seeded for every tenant.
const (
	RoleAdministrator = "Administrator"
	RoleHR            = "HR"
	RoleManager       = "Manager"
	RoleEmployee      = "Employee"
)

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// IsHR reports whether roleName may act as the HR approver.
func IsHR(roleName string) bool {
	return roleName == RoleHR || roleName == RoleAdministrator
}

type UserContext struct {
	UserID    string
	TenantID  string
	RoleID    string
	RoleName  string
	SessionID string
}
