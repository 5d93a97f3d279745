package core

import "context"

// NewLogin is a console user created in the same transaction as an employee.
type NewLogin struct {
	Email        string
	PasswordHash string
	RoleID       string
}

type StoreAPI interface {
	GetEmployee(ctx context.Context, tenantID, employeeID string) (*Employee, error)
	GetEmployeeByUserID(ctx context.Context, tenantID, userID string) (*Employee, error)
	ListEmployees(ctx context.Context, q EmployeeQuery) ([]Employee, int, error)
	CreateEmployee(ctx context.Context, tenantID string, emp Employee, login *NewLogin) (string, string, error)
	UpdateEmployee(ctx context.Context, tenantID string, emp Employee) error
	HasDirectReports(ctx context.Context, tenantID, employeeID string) (bool, error)
	ManagerMap(ctx context.Context, tenantID string) (map[string]string, error)
	ManagerHistory(ctx context.Context, tenantID, employeeID string) ([]ManagerHistoryEntry, error)
	ListEmergencyContacts(ctx context.Context, tenantID, employeeID string) ([]EmergencyContact, error)
	ReplaceEmergencyContacts(ctx context.Context, tenantID, employeeID string, contacts []EmergencyContact) error
	InsertAccessLog(ctx context.Context, tenantID, actorID, employeeID, requestID string, fields []string) error
}
