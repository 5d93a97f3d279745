package leave

import (
	"errors"
	"time"
)

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return float64(daysBetween(dateOnly(start), dateOnly(end))) + 1, nil
}

// CalculateRequestDays counts working days from start to end inclusive,
// skipping weekends and holidays. A half-day flag subtracts half of the
// boundary day when that day is a working day.
func CalculateRequestDays(start, end time.Time, startHalf, endHalf bool, holidays []time.Time) (float64, error) {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	if start.Equal(end) && startHalf && endHalf {
		return 0, errors.New("invalid half-day range")
	}

	off := make(map[time.Time]bool, len(holidays))
	for _, h := range holidays {
		off[dateOnly(h)] = true
	}
	working := func(d time.Time) bool {
		wd := d.Weekday()
		return wd != time.Saturday && wd != time.Sunday && !off[d]
	}

	var days float64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if working(d) {
			days++
		}
	}
	if startHalf && working(start) {
		days -= 0.5
	}
	if endHalf && working(end) {
		days -= 0.5
	}
	if days <= 0 {
		return 0, ErrInvalidRange
	}
	return days, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Decision is the outcome of an approval step.
type Decision struct {
	Next  string
	Final bool
}

// Approve moves a request one step forward. The direct manager's approval is
// final unless the policy requires HR, in which case the request waits in
// pending_hr. HR approval is always final.
func Approve(current string, isManager, isHR, requiresHR bool) (Decision, error) {
	switch current {
	case StatusPending:
		switch {
		case isHR:
			return Decision{Next: StatusApproved, Final: true}, nil
		case isManager && requiresHR:
			return Decision{Next: StatusPendingHR}, nil
		case isManager:
			return Decision{Next: StatusApproved, Final: true}, nil
		}
		return Decision{}, ErrForbidden
	case StatusPendingHR:
		if isHR {
			return Decision{Next: StatusApproved, Final: true}, nil
		}
		if isManager {
			return Decision{}, ErrHRApprovalRequired
		}
		return Decision{}, ErrForbidden
	}
	return Decision{}, ErrInvalidState
}

// Reject closes an open request. Once a request waits on HR only HR may
// reject it.
func Reject(current string, isManager, isHR bool) error {
	switch current {
	case StatusPending:
		if isManager || isHR {
			return nil
		}
		return ErrForbidden
	case StatusPendingHR:
		if isHR {
			return nil
		}
		if isManager {
			return ErrHRApprovalRequired
		}
		return ErrForbidden
	}
	return ErrInvalidState
}

// Cancel lets the requester or HR withdraw an open request.
func Cancel(current string, isOwner, isHR bool) error {
	if current != StatusPending && current != StatusPendingHR {
		return ErrInvalidState
	}
	if !isOwner && !isHR {
		return ErrForbidden
	}
	return nil
}

// InitialStatus is pending when someone can approve as manager and
// pending_hr otherwise.
func InitialStatus(hasManager bool) string {
	if hasManager {
		return StatusPending
	}
	return StatusPendingHR
}
