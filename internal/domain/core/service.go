package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"hrconsole/internal/domain/auth"
)

// PermissionChecker is satisfied by access.Checker.
type PermissionChecker interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

type Service struct {
	Store StoreAPI
	Perms PermissionChecker
}

func NewService(store StoreAPI, perms PermissionChecker) *Service {
	return &Service{Store: store, Perms: perms}
}

// Viewer resolves the caller's employee record, whether they manage anyone,
// and their edit rights.
func (s *Service) Viewer(ctx context.Context, user auth.UserContext) (Viewer, error) {
	v := Viewer{User: user}
	emp, err := s.Store.GetEmployeeByUserID(ctx, user.TenantID, user.UserID)
	switch {
	case err == nil:
		v.EmployeeID = emp.ID
		if v.HasReports, err = s.Store.HasDirectReports(ctx, user.TenantID, emp.ID); err != nil {
			return Viewer{}, err
		}
	case !errors.Is(err, ErrNotFound):
		return Viewer{}, err
	}
	if s.Perms != nil {
		canEdit, err := s.Perms.HasPermission(ctx, user.RoleID, auth.PermEmployeesEdit)
		if err != nil {
			return Viewer{}, err
		}
		v.CanEditEmployees = canEdit
	}
	return v, nil
}

// Me returns the caller's own employee record, or nil when they have none.
func (s *Service) Me(ctx context.Context, v Viewer) (*Employee, error) {
	if v.EmployeeID == "" {
		return nil, nil
	}
	emp, err := s.Store.GetEmployee(ctx, v.User.TenantID, v.EmployeeID)
	if err != nil {
		return nil, err
	}
	FilterEmployeeFields(emp, v)
	return emp, nil
}

func (s *Service) List(ctx context.Context, v Viewer, filter EmployeeFilter) ([]Employee, int, error) {
	q := BuildEmployeeQuery(v.User.TenantID, filter, ScopeFor(v), v.EmployeeID)
	employees, total, err := s.Store.ListEmployees(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	for i := range employees {
		FilterEmployeeFields(&employees[i], v)
	}
	return employees, total, nil
}

// Export lists every employee in scope matching filter, ignoring paging.
func (s *Service) Export(ctx context.Context, v Viewer, filter EmployeeFilter) ([]Employee, error) {
	filter.Limit = maxPageSize
	var out []Employee
	for offset := 0; ; offset += maxPageSize {
		filter.Offset = offset
		page, total, err := s.List(ctx, v, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || len(out) >= total {
			return out, nil
		}
	}
}

// Get returns one employee. Reading another employee's unmasked record is
// written to the access log.
func (s *Service) Get(ctx context.Context, v Viewer, employeeID, requestID string) (*Employee, error) {
	emp, err := s.load(ctx, v, employeeID)
	if err != nil {
		return nil, err
	}
	if SensitiveVisible(v) && emp.ID != v.EmployeeID {
		if err := s.Store.InsertAccessLog(ctx, v.User.TenantID, v.User.UserID, emp.ID, requestID, []string{"nationalId", "bankAccount", "salary"}); err != nil {
			slog.Warn("access log insert failed", "employeeId", emp.ID, "err", err)
		}
	}
	FilterEmployeeFields(emp, v)
	return emp, nil
}

// Create inserts emp, provisioning a login when login is non-nil.
func (s *Service) Create(ctx context.Context, tenantID string, emp Employee, login *LoginInput) (*Employee, error) {
	normalizeEmployee(&emp)
	if emp.ManagerID != "" {
		if _, err := s.Store.GetEmployee(ctx, tenantID, emp.ManagerID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrInvalidManager
			}
			return nil, err
		}
	}

	var newLogin *NewLogin
	if login != nil {
		if err := auth.ValidatePassword(login.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(login.Password)
		if err != nil {
			return nil, err
		}
		newLogin = &NewLogin{Email: emp.Email, PasswordHash: hash, RoleID: login.RoleID}
	}

	id, _, err := s.Store.CreateEmployee(ctx, tenantID, emp, newLogin)
	if err != nil {
		return nil, err
	}
	return s.Store.GetEmployee(ctx, tenantID, id)
}

// Update replaces the employee's fields and returns the records before and
// after the change.
func (s *Service) Update(ctx context.Context, tenantID string, emp Employee) (*Employee, *Employee, error) {
	normalizeEmployee(&emp)
	before, err := s.Store.GetEmployee(ctx, tenantID, emp.ID)
	if err != nil {
		return nil, nil, err
	}
	if emp.ManagerID != "" && emp.ManagerID != before.ManagerID {
		if emp.ManagerID == emp.ID {
			return nil, nil, ErrReportingCycle
		}
		managers, err := s.Store.ManagerMap(ctx, tenantID)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := managers[emp.ManagerID]; !ok {
			return nil, nil, ErrInvalidManager
		}
		if DetectReportingCycle(managers, emp.ID, emp.ManagerID) {
			return nil, nil, ErrReportingCycle
		}
	}
	emp.UserID = before.UserID
	if err := s.Store.UpdateEmployee(ctx, tenantID, emp); err != nil {
		return nil, nil, err
	}
	after, err := s.Store.GetEmployee(ctx, tenantID, emp.ID)
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func (s *Service) EmergencyContacts(ctx context.Context, v Viewer, employeeID string) ([]EmergencyContact, error) {
	if _, err := s.load(ctx, v, employeeID); err != nil {
		return nil, err
	}
	return s.Store.ListEmergencyContacts(ctx, v.User.TenantID, employeeID)
}

// ReplaceEmergencyContacts is open to editors and to the employee themself.
func (s *Service) ReplaceEmergencyContacts(ctx context.Context, v Viewer, employeeID string, contacts []EmergencyContact) ([]EmergencyContact, error) {
	if !v.privileged() && employeeID != v.EmployeeID {
		return nil, ErrForbidden
	}
	if _, err := s.Store.GetEmployee(ctx, v.User.TenantID, employeeID); err != nil {
		return nil, err
	}
	if err := s.Store.ReplaceEmergencyContacts(ctx, v.User.TenantID, employeeID, NormalizeContacts(contacts)); err != nil {
		return nil, err
	}
	return s.Store.ListEmergencyContacts(ctx, v.User.TenantID, employeeID)
}

func (s *Service) ManagerHistory(ctx context.Context, v Viewer, employeeID string) ([]ManagerHistoryEntry, error) {
	if _, err := s.load(ctx, v, employeeID); err != nil {
		return nil, err
	}
	return s.Store.ManagerHistory(ctx, v.User.TenantID, employeeID)
}

func (s *Service) load(ctx context.Context, v Viewer, employeeID string) (*Employee, error) {
	emp, err := s.Store.GetEmployee(ctx, v.User.TenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if !InScope(v, *emp) {
		return nil, ErrForbidden
	}
	return emp, nil
}

func normalizeEmployee(emp *Employee) {
	emp.FirstName = strings.TrimSpace(emp.FirstName)
	emp.LastName = strings.TrimSpace(emp.LastName)
	emp.Email = strings.ToLower(strings.TrimSpace(emp.Email))
	if emp.Status == "" {
		emp.Status = StatusActive
	}
	if emp.EmploymentType == "" {
		emp.EmploymentType = EmploymentFullTime
	}
	if emp.Currency == "" {
		emp.Currency = "USD"
	}
}
