package recruitment

import (
	"errors"
	"time"
)

const (
	JobDraft  = "draft"
	JobOpen   = "open"
	JobClosed = "closed"
)

// Stage outcomes. A stage with an outcome ends the pipeline.
const (
	OutcomeHired    = "hired"
	OutcomeRejected = "rejected"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrJobClosed      = errors.New("job opening is closed")
	ErrInvalidStatus  = errors.New("invalid job status")
	ErrUnknownStage   = errors.New("unknown pipeline stage")
	ErrNotPermutation = errors.New("stage order must list every stage exactly once")
	ErrNoHiredStage   = errors.New("pipeline has no hired stage")
	ErrStageInUse     = errors.New("stage still holds candidates")
)

type Job struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OrgUnitID   string     `json:"orgUnitId"`
	OrgUnitName string     `json:"orgUnitName"`
	Status      string     `json:"status"`
	ClosingDate *time.Time `json:"closingDate,omitempty"`
	Openings    int        `json:"openings"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func ValidJobStatus(status string) bool {
	switch status {
	case JobDraft, JobOpen, JobClosed:
		return true
	}
	return false
}

type Stage struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
	Outcome   string `json:"outcome,omitempty"`
}

func (s Stage) Terminal() bool {
	return s.Outcome != ""
}

type Candidate struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	JobTitle   string    `json:"jobTitle"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Source     string    `json:"source"`
	Notes      string    `json:"notes"`
	StageID    string    `json:"stageId"`
	StageName  string    `json:"stageName"`
	Position   int       `json:"position"`
	EmployeeID string    `json:"employeeId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (c Candidate) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type StageChange struct {
	ID            string    `json:"id"`
	CandidateID   string    `json:"candidateId"`
	FromStageID   string    `json:"fromStageId,omitempty"`
	FromStageName string    `json:"fromStageName,omitempty"`
	ToStageID     string    `json:"toStageId"`
	ToStageName   string    `json:"toStageName"`
	MovedBy       string    `json:"movedBy,omitempty"`
	MovedAt       time.Time `json:"movedAt"`
}

// Column is one stage of a job's kanban board.
type Column struct {
	Stage      Stage       `json:"stage"`
	Candidates []Candidate `json:"candidates"`
}

// DefaultStages seeds a tenant's pipeline.
func DefaultStages() []Stage {
	names := []struct {
		name    string
		outcome string
	}{
		{"Applied", ""},
		{"Screening", ""},
		{"Interview", ""},
		{"Offer", ""},
		{"Hired", OutcomeHired},
		{"Rejected", OutcomeRejected},
	}
	out := make([]Stage, len(names))
	for i, n := range names {
		out[i] = Stage{Name: n.name, SortOrder: (i + 1) * 10, Outcome: n.outcome}
	}
	return out
}
