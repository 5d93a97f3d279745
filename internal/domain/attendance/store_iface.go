package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	EmployeeByUser(ctx context.Context, tenantID, userID string) (string, error)
	ManagerOf(ctx context.Context, tenantID, employeeID string) (string, error)
	ClockIn(ctx context.Context, tenantID, employeeID string, at time.Time, note string) (Record, error)
	ClockOut(ctx context.Context, tenantID, employeeID string, at time.Time, note string) (Record, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]Record, int, error)
}
