package org

import (
	"errors"
	"time"
)

type Kind string

const (
	KindCompany    Kind = "company"
	KindDivision   Kind = "division"
	KindDepartment Kind = "department"
	KindTeam       Kind = "team"
)

var kindRanks = map[Kind]int{
	KindCompany:    0,
	KindDivision:   1,
	KindDepartment: 2,
	KindTeam:       3,
}

// Rank orders kinds from company (0) down to team (3).
func (k Kind) Rank() (int, bool) {
	rank, ok := kindRanks[k]
	return rank, ok
}

var (
	ErrNotFound         = errors.New("org unit not found")
	ErrInvalidKind      = errors.New("unknown org unit kind")
	ErrInvalidPlacement = errors.New("org unit kind cannot sit under its parent")
	ErrCycle            = errors.New("org unit cannot be moved under itself or its descendants")
	ErrInUse            = errors.New("org unit still has child units or employees")
	ErrNotPermutation   = errors.New("ordered ids must list every sibling exactly once")
)

type OrgUnit struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Kind              Kind      `json:"kind"`
	ParentID          string    `json:"parentId"`
	ManagerEmployeeID string    `json:"managerEmployeeId"`
	ManagerName       string    `json:"managerName"`
	SortOrder         int       `json:"sortOrder"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Node is an org unit with its subtree. Headcount counts the unit's own
// employees; TotalHeadcount adds every descendant.
type Node struct {
	OrgUnit
	Headcount      int     `json:"headcount"`
	TotalHeadcount int     `json:"totalHeadcount"`
	Children       []*Node `json:"children"`
}

// ChartEmployee is the slice of an employee record the org chart needs.
type ChartEmployee struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	JobTitle    string `json:"jobTitle"`
	OrgUnitName string `json:"orgUnitName"`
	ManagerID   string `json:"managerId"`
}

type ChartNode struct {
	ChartEmployee
	Reports []*ChartNode `json:"reports"`
}
