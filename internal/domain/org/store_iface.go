package org

import "context"

type StoreAPI interface {
	ListUnits(ctx context.Context, tenantID string) ([]OrgUnit, error)
	GetUnit(ctx context.Context, tenantID, unitID string) (OrgUnit, error)
	CreateUnit(ctx context.Context, tenantID string, unit OrgUnit) (string, error)
	UpdateUnit(ctx context.Context, tenantID string, unit OrgUnit) error
	DeleteUnit(ctx context.Context, tenantID, unitID string) error
	UpdateSortOrders(ctx context.Context, tenantID string, orders map[string]int) error
	Headcounts(ctx context.Context, tenantID string) (map[string]int, error)
	ChartEmployees(ctx context.Context, tenantID string) ([]ChartEmployee, error)
}
