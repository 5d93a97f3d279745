package core

import (
	"errors"
	"time"
)

const (
	StatusActive     = "active"
	StatusOnLeave    = "on_leave"
	StatusTerminated = "terminated"
)

const (
	EmploymentFullTime   = "full_time"
	EmploymentPartTime   = "part_time"
	EmploymentContractor = "contractor"
	EmploymentIntern     = "intern"
)

var (
	ErrNotFound       = errors.New("employee not found")
	ErrForbidden      = errors.New("employee outside viewer scope")
	ErrReportingCycle = errors.New("manager assignment would create a reporting cycle")
	ErrInvalidManager = errors.New("manager does not exist")
)

type Employee struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	EmployeeNumber string     `json:"employeeNumber"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Address        string     `json:"address"`
	JobTitle       string     `json:"jobTitle"`
	NationalID     string     `json:"nationalId,omitempty"`
	BankAccount    string     `json:"bankAccount,omitempty"`
	Salary         *float64   `json:"salary,omitempty"`
	Currency       string     `json:"currency"`
	EmploymentType string     `json:"employmentType"`
	OrgUnitID      string     `json:"orgUnitId"`
	OrgUnitName    string     `json:"orgUnitName"`
	ManagerID      string     `json:"managerId"`
	ManagerName    string     `json:"managerName"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

type EmergencyContact struct {
	ID           string    `json:"id" db:"id"`
	EmployeeID   string    `json:"employeeId" db:"employee_id"`
	FullName     string    `json:"fullName" db:"full_name"`
	Relationship string    `json:"relationship" db:"relationship"`
	Phone        string    `json:"phone" db:"phone"`
	Email        string    `json:"email" db:"email"`
	Address      string    `json:"address" db:"address"`
	IsPrimary    bool      `json:"isPrimary" db:"is_primary"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type ManagerHistoryEntry struct {
	ManagerID   string     `json:"managerId"`
	ManagerName string     `json:"managerName"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// LoginInput provisions a console user alongside a new employee.
type LoginInput struct {
	Password string `json:"password"`
	RoleID   string `json:"roleId"`
}

// ValidStatus reports whether status is a known employee status.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusOnLeave, StatusTerminated:
		return true
	}
	return false
}

func ValidEmploymentType(kind string) bool {
	switch kind {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContractor, EmploymentIntern:
		return true
	}
	return false
}
