package leave

import (
	"math"
	"time"
)

// BalanceInput is everything DeriveBalance reads. Requests and Adjustments
// may span several years; only the target year and the one before it count.
type BalanceInput struct {
	Policy        Policy
	Year          int
	AsOf          time.Time
	EmployeeStart *time.Time
	Requests      []Request
	Adjustments   []Adjustment
}

type Balance struct {
	LeaveTypeID   string  `json:"leaveTypeId"`
	LeaveTypeName string  `json:"leaveTypeName,omitempty"`
	Year          int     `json:"year"`
	Entitlement   float64 `json:"entitlement"`
	CarryForward  float64 `json:"carryForward"`
	Adjustments   float64 `json:"adjustments"`
	Used          float64 `json:"used"`
	Pending       float64 `json:"pending"`
	Remaining     float64 `json:"remaining"`
	Available     float64 `json:"available"`
}

// DeriveBalance computes a leave balance from raw records.
//
// Entitlement is prorated by whole months from the employee's start month.
// Monthly policies credit one twelfth at the start of each month up to AsOf.
// CarryForward is the previous year's unused balance capped by the policy's
// carry-over limit; carry from earlier years has expired. Requests count
// toward the year their start date falls in.
func DeriveBalance(in BalanceInput) Balance {
	b := Balance{LeaveTypeID: in.Policy.LeaveTypeID, Year: in.Year}
	b.Entitlement = round2(entitlement(in.Policy, in.Year, in.AsOf, in.EmployeeStart))

	prevEntitlement := entitlement(in.Policy, in.Year-1, yearEnd(in.Year-1), in.EmployeeStart)
	prevUsed, _ := requestTotals(in.Requests, in.Year-1)
	prevAdjust := adjustmentTotal(in.Adjustments, in.Year-1)
	unused := prevEntitlement + prevAdjust - prevUsed
	b.CarryForward = round2(math.Max(0, math.Min(unused, in.Policy.CarryOverLimit)))

	b.Adjustments = round2(adjustmentTotal(in.Adjustments, in.Year))
	used, pending := requestTotals(in.Requests, in.Year)
	b.Used = round2(used)
	b.Pending = round2(pending)
	b.Remaining = round2(b.Entitlement + b.CarryForward + b.Adjustments - b.Used)
	b.Available = round2(b.Remaining - b.Pending)
	return b
}

// CheckSufficient refuses a request of days that would take the available
// balance below zero, unless the policy allows it.
func CheckSufficient(b Balance, days float64, allowNegative bool) error {
	if allowNegative {
		return nil
	}
	if b.Available-days < -0.001 {
		return ErrInsufficientBalance
	}
	return nil
}

func entitlement(p Policy, year int, asOf time.Time, start *time.Time) float64 {
	if p.Entitlement <= 0 {
		return 0
	}
	firstMonth := 1
	if start != nil {
		switch {
		case start.Year() > year:
			return 0
		case start.Year() == year:
			firstMonth = int(start.Month())
		}
	}

	switch p.AccrualPeriod {
	case AccrualMonthly:
		lastMonth := 12
		switch {
		case asOf.Year() < year:
			return 0
		case asOf.Year() == year:
			lastMonth = int(asOf.Month())
		}
		months := lastMonth - firstMonth + 1
		if months <= 0 {
			return 0
		}
		return p.Entitlement * float64(months) / 12
	default:
		return p.Entitlement * float64(12-firstMonth+1) / 12
	}
}

func requestTotals(requests []Request, year int) (used, pending float64) {
	for _, r := range requests {
		if r.StartDate.Year() != year {
			continue
		}
		switch r.Status {
		case StatusApproved:
			used += r.Days
		case StatusPending, StatusPendingHR:
			pending += r.Days
		}
	}
	return used, pending
}

func adjustmentTotal(adjustments []Adjustment, year int) float64 {
	var total float64
	for _, a := range adjustments {
		if a.EffectiveDate.Year() == year {
			total += a.Amount
		}
	}
	return total
}

func yearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
