package attendance

import (
	"math"
	"time"
)

// presence is one employee on one calendar day.
type presence struct {
	employeeID string
	day        time.Time
}

// Summarize totals a set of records, possibly spanning several employees.
// Each employee counts once per day however many records they hold, and is
// late when their own first clock-in falls after workdayStart past midnight
// UTC. Open records add no hours.
func Summarize(records []Record, workdayStart time.Duration) Summary {
	var s Summary
	first := map[presence]time.Time{}
	for _, r := range records {
		key := presence{employeeID: r.EmployeeID, day: dateOnly(r.WorkDate)}
		clockIn := r.ClockIn.UTC()
		if earliest, ok := first[key]; !ok || clockIn.Before(earliest) {
			first[key] = clockIn
		}
		if r.Open() {
			s.OpenRecords++
			continue
		}
		s.TotalHours += r.Hours()
	}
	s.DaysPresent = len(first)
	for key, clockIn := range first {
		if clockIn.Sub(key.day) > workdayStart {
			s.LateArrivals++
		}
	}
	s.TotalHours = math.Round(s.TotalHours*100) / 100
	return s
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
