package leave

import (
	"testing"
	"time"
)

func TestCalculateDays(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	days, err := CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %v", days)
	}

	end = time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	days, err = CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}
}

func TestCalculateDaysInvalid(t *testing.T) {
	start := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)

	_, err := CalculateDays(start, end)
	if err == nil {
		t.Fatal("expected error for invalid range")
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateRequestDays(t *testing.T) {
	// 2025-03-03 is a Monday.
	cases := []struct {
		name      string
		start     time.Time
		end       time.Time
		startHalf bool
		endHalf   bool
		holidays  []time.Time
		want      float64
		wantErr   bool
	}{
		{name: "single weekday", start: day(2025, 3, 3), end: day(2025, 3, 3), want: 1},
		{name: "week spans weekend", start: day(2025, 3, 6), end: day(2025, 3, 11), want: 4},
		{name: "holiday skipped", start: day(2025, 3, 3), end: day(2025, 3, 7), holidays: []time.Time{day(2025, 3, 5)}, want: 4},
		{name: "half start and end", start: day(2025, 3, 3), end: day(2025, 3, 4), startHalf: true, endHalf: true, want: 1},
		{name: "single half day", start: day(2025, 3, 3), end: day(2025, 3, 3), endHalf: true, want: 0.5},
		{name: "half flag on weekend ignored", start: day(2025, 3, 1), end: day(2025, 3, 3), startHalf: true, want: 1},
		{name: "weekend only", start: day(2025, 3, 8), end: day(2025, 3, 9), wantErr: true},
		{name: "both halves of one day", start: day(2025, 3, 3), end: day(2025, 3, 3), startHalf: true, endHalf: true, wantErr: true},
		{name: "reversed", start: day(2025, 3, 4), end: day(2025, 3, 3), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateRequestDays(tc.start, tc.end, tc.startHalf, tc.endHalf, tc.holidays)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v days", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v days, got %v", tc.want, got)
			}
		})
	}
}

func TestApproveTransitions(t *testing.T) {
	cases := []struct {
		name       string
		current    string
		isManager  bool
		isHR       bool
		requiresHR bool
		want       Decision
		wantErr    error
	}{
		{name: "manager final", current: StatusPending, isManager: true, want: Decision{Next: StatusApproved, Final: true}},
		{name: "manager escalates", current: StatusPending, isManager: true, requiresHR: true, want: Decision{Next: StatusPendingHR}},
		{name: "hr skips manager", current: StatusPending, isHR: true, requiresHR: true, want: Decision{Next: StatusApproved, Final: true}},
		{name: "hr completes", current: StatusPendingHR, isHR: true, want: Decision{Next: StatusApproved, Final: true}},
		{name: "manager blocked at hr step", current: StatusPendingHR, isManager: true, wantErr: ErrHRApprovalRequired},
		{name: "stranger", current: StatusPending, wantErr: ErrForbidden},
		{name: "already approved", current: StatusApproved, isHR: true, wantErr: ErrInvalidState},
		{name: "cancelled", current: StatusCancelled, isManager: true, wantErr: ErrInvalidState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Approve(tc.current, tc.isManager, tc.isHR, tc.requiresHR)
			if err != tc.wantErr {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestRejectAndCancel(t *testing.T) {
	if err := Reject(StatusPending, true, false); err != nil {
		t.Fatalf("manager reject: %v", err)
	}
	if err := Reject(StatusPendingHR, true, false); err != ErrHRApprovalRequired {
		t.Fatalf("expected hr approval required, got %v", err)
	}
	if err := Reject(StatusRejected, false, true); err != ErrInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if err := Cancel(StatusPendingHR, true, false); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if err := Cancel(StatusPending, false, false); err != ErrForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := Cancel(StatusApproved, true, true); err != ErrInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestInitialStatus(t *testing.T) {
	if InitialStatus(true) != StatusPending {
		t.Fatal("employees with a manager start pending")
	}
	if InitialStatus(false) != StatusPendingHR {
		t.Fatal("employees without a manager go straight to hr")
	}
}
