package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hrconsole/internal/domain/recruitment"
	"hrconsole/internal/platform/config"
	"hrconsole/internal/platform/metrics"
)

const (
	JobLeaveReminder    = "leave_reminder"
	JobRecruitmentSweep = "recruitment_sweep"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrUnknownJob = errors.New("unknown job type")

type LeaveReminder interface {
	RemindStale(ctx context.Context, tenantID string, cutoff time.Time) (int, error)
}

type RecruitmentSweeper interface {
	CloseExpired(ctx context.Context, tenantID string) ([]recruitment.Job, error)
}

type Service struct {
	Runs        RunStore
	Cfg         config.Config
	Leave       LeaveReminder
	Recruitment RecruitmentSweeper
	Metrics     *metrics.Collector
	Now         func() time.Time
	queue       chan job
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

func New(runs RunStore, cfg config.Config, leave LeaveReminder, sweeper RecruitmentSweeper, collector *metrics.Collector) *Service {
	return &Service{
		Runs:        runs,
		Cfg:         cfg,
		Leave:       leave,
		Recruitment: sweeper,
		Metrics:     collector,
		Now:         time.Now,
		queue:       make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.LeaveReminderInterval > 0 {
		go s.schedule(ctx, JobLeaveReminder, s.Cfg.LeaveReminderInterval)
	}
	if s.Cfg.RecruitmentSweepInterval > 0 {
		go s.schedule(ctx, JobRecruitmentSweep, s.Cfg.RecruitmentSweepInterval)
	}
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
	}
}

// RunNow executes a known job synchronously for one tenant and records it
// like a scheduled run.
func (s *Service) RunNow(ctx context.Context, jobType, tenantID string) (any, error) {
	run, err := s.task(jobType, tenantID)
	if err != nil {
		return nil, err
	}
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) task(jobType, tenantID string) (func(context.Context) (any, error), error) {
	switch jobType {
	case JobLeaveReminder:
		if s.Leave == nil {
			return nil, fmt.Errorf("%s: leave service not configured", jobType)
		}
		return func(ctx context.Context) (any, error) {
			cutoff := s.now().Add(-s.Cfg.LeaveReminderAfter)
			sent, err := s.Leave.RemindStale(ctx, tenantID, cutoff)
			return map[string]any{"cutoff": cutoff, "reminded": sent}, err
		}, nil
	case JobRecruitmentSweep:
		if s.Recruitment == nil {
			return nil, fmt.Errorf("%s: recruitment service not configured", jobType)
		}
		return func(ctx context.Context) (any, error) {
			closed, err := s.Recruitment.CloseExpired(ctx, tenantID)
			ids := make([]string, 0, len(closed))
			for _, j := range closed {
				ids = append(ids, j.ID)
			}
			return map[string]any{"closedJobs": ids}, err
		}, nil
	default:
		return nil, ErrUnknownJob
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.Runs.Start(ctx, j.TenantID, j.Type)
	if err != nil {
		slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	out := Outcome{Status: StatusCompleted, Details: details, Err: err}
	if err != nil {
		out.Status = StatusFailed
	}
	if runID != "" {
		if updErr := s.Runs.Finish(ctx, runID, out); updErr != nil {
			slog.Warn("job run update failed", "runId", runID, "err", updErr)
		}
	}
	if s.Metrics != nil {
		s.Metrics.RecordJob(j.Type, err != nil, s.now())
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, jobType string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueAll(ctx, jobType)
		}
	}
}

func (s *Service) enqueueAll(ctx context.Context, jobType string) {
	tenants, err := s.Runs.Tenants(ctx)
	if err != nil {
		slog.Warn("scheduler tenant lookup failed", "jobType", jobType, "err", err)
		return
	}
	for _, tenantID := range tenants {
		run, err := s.task(jobType, tenantID)
		if err != nil {
			slog.Warn("scheduler skipped job", "jobType", jobType, "err", err)
			return
		}
		s.Enqueue(jobType, tenantID, run)
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
