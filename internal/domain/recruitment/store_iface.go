package recruitment

import (
	"context"
	"time"
)

// MoveFunc receives the job and its current board, locked, and returns the
// board to persist.
type MoveFunc func(job Job, board Board) (Board, error)

type StoreAPI interface {
	ListJobs(ctx context.Context, tenantID, status string) ([]Job, error)
	GetJob(ctx context.Context, tenantID, jobID string) (Job, error)
	CreateJob(ctx context.Context, tenantID string, job Job) (string, error)
	UpdateJob(ctx context.Context, tenantID string, job Job) error
	CloseExpired(ctx context.Context, tenantID string, today time.Time) ([]Job, error)

	ListStages(ctx context.Context, tenantID string) ([]Stage, error)
	CreateStage(ctx context.Context, tenantID string, stage Stage) (string, error)
	UpdateStageOrders(ctx context.Context, tenantID string, orders map[string]int) error

	ListCandidates(ctx context.Context, tenantID, jobID string) ([]Candidate, error)
	GetCandidate(ctx context.Context, tenantID, candidateID string) (Candidate, error)
	CreateCandidate(ctx context.Context, tenantID string, c Candidate, actorUserID string) (string, error)
	UpdateCandidate(ctx context.Context, tenantID string, c Candidate) error
	MoveCandidates(ctx context.Context, tenantID, jobID, actorUserID string, fn MoveFunc) error
	History(ctx context.Context, tenantID, candidateID string) ([]StageChange, error)
	LinkEmployee(ctx context.Context, tenantID, candidateID string, create func(Candidate) (string, error)) (Candidate, bool, error)
}
