package org

import (
	"context"
	"strings"
)

type UnitInput struct {
	Name              string `json:"name"`
	Kind              Kind   `json:"kind"`
	ParentID          string `json:"parentId"`
	ManagerEmployeeID string `json:"managerEmployeeId"`
}

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]OrgUnit, error) {
	return s.Store.ListUnits(ctx, tenantID)
}

func (s *Service) Tree(ctx context.Context, tenantID string) ([]*Node, error) {
	units, err := s.Store.ListUnits(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	headcounts, err := s.Store.Headcounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return BuildTree(units, headcounts), nil
}

func findUnit(units []OrgUnit, id string) (OrgUnit, bool) {
	for _, u := range units {
		if u.ID == id {
			return u, true
		}
	}
	return OrgUnit{}, false
}

func (s *Service) parentKind(units []OrgUnit, parentID string) (Kind, error) {
	if parentID == "" {
		return "", nil
	}
	parent, ok := findUnit(units, parentID)
	if !ok {
		return "", ErrNotFound
	}
	return parent.Kind, nil
}

// Create places a new unit last among its siblings.
func (s *Service) Create(ctx context.Context, tenantID string, input UnitInput) (OrgUnit, error) {
	units, err := s.Store.ListUnits(ctx, tenantID)
	if err != nil {
		return OrgUnit{}, err
	}
	parentKind, err := s.parentKind(units, input.ParentID)
	if err != nil {
		return OrgUnit{}, err
	}
	if err := ValidatePlacement(input.Kind, parentKind); err != nil {
		return OrgUnit{}, err
	}
	sortOrder := 10
	for _, u := range units {
		if u.ParentID == input.ParentID && u.SortOrder >= sortOrder {
			sortOrder = u.SortOrder + 10
		}
	}
	unit := OrgUnit{
		Name:              strings.TrimSpace(input.Name),
		Kind:              input.Kind,
		ParentID:          input.ParentID,
		ManagerEmployeeID: input.ManagerEmployeeID,
		SortOrder:         sortOrder,
	}
	id, err := s.Store.CreateUnit(ctx, tenantID, unit)
	if err != nil {
		return OrgUnit{}, err
	}
	return s.Store.GetUnit(ctx, tenantID, id)
}

// Update renames a unit, changes its manager or kind. A kind change must
// still fit between the parent and every child.
func (s *Service) Update(ctx context.Context, tenantID, unitID string, input UnitInput) (OrgUnit, OrgUnit, error) {
	units, err := s.Store.ListUnits(ctx, tenantID)
	if err != nil {
		return OrgUnit{}, OrgUnit{}, err
	}
	before, ok := findUnit(units, unitID)
	if !ok {
		return OrgUnit{}, OrgUnit{}, ErrNotFound
	}
	after := before
	after.Name = strings.TrimSpace(input.Name)
	after.ManagerEmployeeID = input.ManagerEmployeeID
	if input.Kind != "" && input.Kind != before.Kind {
		after.Kind = input.Kind
		if err := s.checkFits(units, after); err != nil {
			return OrgUnit{}, OrgUnit{}, err
		}
	}
	if err := s.Store.UpdateUnit(ctx, tenantID, after); err != nil {
		return OrgUnit{}, OrgUnit{}, err
	}
	updated, err := s.Store.GetUnit(ctx, tenantID, unitID)
	return before, updated, err
}

func (s *Service) checkFits(units []OrgUnit, unit OrgUnit) error {
	parentKind, err := s.parentKind(units, unit.ParentID)
	if err != nil {
		return err
	}
	if err := ValidatePlacement(unit.Kind, parentKind); err != nil {
		return err
	}
	for _, u := range units {
		if u.ParentID == unit.ID {
			if err := ValidatePlacement(u.Kind, unit.Kind); err != nil {
				return err
			}
		}
	}
	return nil
}

// Move re-parents a unit ("" makes it a root) and appends it to its new
// siblings.
func (s *Service) Move(ctx context.Context, tenantID, unitID, newParentID string) (OrgUnit, OrgUnit, error) {
	units, err := s.Store.ListUnits(ctx, tenantID)
	if err != nil {
		return OrgUnit{}, OrgUnit{}, err
	}
	before, ok := findUnit(units, unitID)
	if !ok {
		return OrgUnit{}, OrgUnit{}, ErrNotFound
	}
	if DetectCycle(units, unitID, newParentID) {
		return OrgUnit{}, OrgUnit{}, ErrCycle
	}
	after := before
	after.ParentID = newParentID
	if err := s.checkFits(units, after); err != nil {
		return OrgUnit{}, OrgUnit{}, err
	}
	if newParentID != before.ParentID {
		after.SortOrder = 10
		for _, u := range units {
			if u.ParentID == newParentID && u.ID != unitID && u.SortOrder >= after.SortOrder {
				after.SortOrder = u.SortOrder + 10
			}
		}
	}
	if err := s.Store.UpdateUnit(ctx, tenantID, after); err != nil {
		return OrgUnit{}, OrgUnit{}, err
	}
	updated, err := s.Store.GetUnit(ctx, tenantID, unitID)
	return before, updated, err
}

func (s *Service) Reorder(ctx context.Context, tenantID, parentID string, orderedIDs []string) (map[string]int, error) {
	units, err := s.Store.ListUnits(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if parentID != "" {
		if _, ok := findUnit(units, parentID); !ok {
			return nil, ErrNotFound
		}
	}
	orders, err := ReorderSiblings(units, parentID, orderedIDs)
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpdateSortOrders(ctx, tenantID, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, unitID string) (OrgUnit, error) {
	unit, err := s.Store.GetUnit(ctx, tenantID, unitID)
	if err != nil {
		return OrgUnit{}, err
	}
	if err := s.Store.DeleteUnit(ctx, tenantID, unitID); err != nil {
		return OrgUnit{}, err
	}
	return unit, nil
}

// Chart returns the reporting tree from rootEmployeeID, or the whole forest
// when it is empty.
func (s *Service) Chart(ctx context.Context, tenantID, rootEmployeeID string) ([]*ChartNode, error) {
	employees, err := s.Store.ChartEmployees(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return BuildChart(employees, rootEmployeeID)
}
