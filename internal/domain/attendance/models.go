package attendance

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("no open attendance record")
	ErrNoEmployee       = errors.New("user has no employee record")
	ErrForbidden        = errors.New("forbidden")
)

type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	WorkDate   time.Time  `json:"workDate"`
	ClockIn    time.Time  `json:"clockIn"`
	ClockOut   *time.Time `json:"clockOut,omitempty"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Open reports whether the record still waits for a clock-out.
func (r Record) Open() bool {
	return r.ClockOut == nil
}

// Hours is the worked time of a closed record.
func (r Record) Hours() float64 {
	if r.ClockOut == nil || r.ClockOut.Before(r.ClockIn) {
		return 0
	}
	return r.ClockOut.Sub(r.ClockIn).Hours()
}

type Summary struct {
	EmployeeID   string  `json:"employeeId,omitempty"`
	DaysPresent  int     `json:"daysPresent"`
	TotalHours   float64 `json:"totalHours"`
	LateArrivals int     `json:"lateArrivals"`
	OpenRecords  int     `json:"openRecords"`
}

type Filter struct {
	EmployeeID string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
