package reports

import "time"

type EmployeeSummary struct {
	EmployeeID          string `json:"employeeId" db:"-"`
	OpenLeaveRequests   int    `json:"openLeaveRequests" db:"open_leave_requests"`
	ClockedIn           bool   `json:"clockedIn" db:"clocked_in"`
	UnreadNotifications int    `json:"unreadNotifications" db:"unread_notifications"`
}

type TeamSummary struct {
	DirectReports    int `json:"directReports" db:"direct_reports"`
	PendingApprovals int `json:"pendingApprovals" db:"pending_approvals"`
	OnLeaveToday     int `json:"onLeaveToday" db:"on_leave_today"`
}

type HRSummary struct {
	Headcount        int `json:"headcount" db:"headcount"`
	AwaitingHR       int `json:"awaitingHr" db:"awaiting_hr"`
	OpenJobs         int `json:"openJobs" db:"open_jobs"`
	ActiveCandidates int `json:"activeCandidates" db:"active_candidates"`
}

// Dashboard holds the sections the caller qualifies for; the rest are nil.
type Dashboard struct {
	Employee *EmployeeSummary `json:"employee,omitempty"`
	Team     *TeamSummary     `json:"team,omitempty"`
	HR       *HRSummary       `json:"hr,omitempty"`
}

type JobRun struct {
	ID          string         `json:"id" db:"id"`
	JobType     string         `json:"jobType" db:"job_type"`
	Status      string         `json:"status" db:"status"`
	Details     map[string]any `json:"details" db:"details"`
	StartedAt   time.Time      `json:"startedAt" db:"started_at"`
	CompletedAt *time.Time     `json:"completedAt,omitempty" db:"completed_at"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}
