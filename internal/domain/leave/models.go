package leave

import (
	"errors"
	"time"
)

const (
	StatusPending   = "pending"
	StatusPendingHR = "pending_hr"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	AccrualYearly  = "yearly"
	AccrualMonthly = "monthly"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state")
	ErrHRApprovalRequired  = errors.New("hr approval required")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrInvalidRange        = errors.New("leave range contains no working time")
	ErrNoPolicy            = errors.New("leave type has no policy")
	ErrNoEmployee          = errors.New("user has no employee record")
	ErrInvalidPolicy       = errors.New("invalid leave policy")
)

type LeaveType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	IsPaid      bool      `json:"isPaid"`
	RequiresDoc bool      `json:"requiresDoc"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Policy struct {
	ID                 string  `json:"id"`
	LeaveTypeID        string  `json:"leaveTypeId"`
	Entitlement        float64 `json:"entitlement"`
	AccrualPeriod      string  `json:"accrualPeriod"`
	CarryOverLimit     float64 `json:"carryOverLimit"`
	AllowNegative      bool    `json:"allowNegative"`
	RequiresHRApproval bool    `json:"requiresHrApproval"`
}

type Holiday struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	Region string    `json:"region"`
}

type Request struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	EmployeeName  string     `json:"employeeName"`
	LeaveTypeID   string     `json:"leaveTypeId"`
	LeaveTypeName string     `json:"leaveTypeName"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       time.Time  `json:"endDate"`
	StartHalf     bool       `json:"startHalf"`
	EndHalf       bool       `json:"endHalf"`
	Days          float64    `json:"days"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	DecidedBy     string     `json:"decidedBy,omitempty"`
	DecidedAt     *time.Time `json:"decidedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Open reports whether the request still awaits a decision.
func (r Request) Open() bool {
	return r.Status == StatusPending || r.Status == StatusPendingHR
}

type Adjustment struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employeeId"`
	LeaveTypeID   string    `json:"leaveTypeId"`
	Amount        float64   `json:"amount"`
	Reason        string    `json:"reason"`
	EffectiveDate time.Time `json:"effectiveDate"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EmployeeRef is the part of an employee record the leave workflow needs.
type EmployeeRef struct {
	ID            string
	UserID        string
	Name          string
	ManagerID     string
	ManagerUserID string
	StartDate     *time.Time
}

// Actor is the user acting on a leave request.
type Actor struct {
	UserID     string
	TenantID   string
	RoleName   string
	EmployeeID string
}
