package leave

import (
	"context"
	"time"
)

// RequestScope limits request listings. Unless All is set only the
// employee's own requests and those of their direct reports are returned.
type RequestScope struct {
	All        bool
	EmployeeID string
}

type RequestFilter struct {
	EmployeeID string
	Status     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// BalanceCheck inspects an employee's existing requests and adjustments of
// one leave type before a new request is inserted.
type BalanceCheck func(requests []Request, adjustments []Adjustment) error

type StoreAPI interface {
	ListTypes(ctx context.Context, tenantID string) ([]LeaveType, error)
	CreateType(ctx context.Context, tenantID string, t LeaveType) (string, error)
	ListPolicies(ctx context.Context, tenantID string) ([]Policy, error)
	UpsertPolicy(ctx context.Context, tenantID string, p Policy) (string, error)
	PolicyForType(ctx context.Context, tenantID, leaveTypeID string) (Policy, error)
	ListHolidays(ctx context.Context, tenantID string, year int) ([]Holiday, error)
	CreateHoliday(ctx context.Context, tenantID string, h Holiday) (string, error)
	DeleteHoliday(ctx context.Context, tenantID, holidayID string) error
	HolidayDates(ctx context.Context, tenantID string, from, to time.Time) ([]time.Time, error)
	EmployeeByUser(ctx context.Context, tenantID, userID string) (EmployeeRef, error)
	Employee(ctx context.Context, tenantID, employeeID string) (EmployeeRef, error)
	ActiveEmployees(ctx context.Context, tenantID string) ([]EmployeeRef, error)
	ListRequests(ctx context.Context, tenantID string, scope RequestScope, filter RequestFilter) ([]Request, int, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (Request, error)
	RequestsSince(ctx context.Context, tenantID, employeeID string, since time.Time) ([]Request, error)
	AdjustmentsSince(ctx context.Context, tenantID, employeeID string, since time.Time) ([]Adjustment, error)
	CreateAdjustment(ctx context.Context, tenantID string, a Adjustment) (string, error)
	CreateRequest(ctx context.Context, tenantID string, req Request, check BalanceCheck) (string, error)
	Transition(ctx context.Context, tenantID, requestID, actorUserID string, fn func(Request) (Request, error)) (Request, Request, error)
	StalePending(ctx context.Context, tenantID string, before time.Time) ([]Request, error)
}
