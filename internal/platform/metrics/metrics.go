package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Collector keeps process-local counters served at /api/v1/metrics.
type Collector struct {
	requests    atomic.Uint64
	serverError atomic.Uint64
	rateLimited atomic.Uint64
	forbidden   atomic.Uint64
	durationMs  atomic.Uint64

	mu     sync.Mutex
	routes map[string]uint64
	jobs   map[string]JobStats
}

type JobStats struct {
	Runs     uint64    `json:"runs"`
	Failures uint64    `json:"failures"`
	LastRun  time.Time `json:"lastRun"`
}

type Snapshot struct {
	RequestsTotal    uint64              `json:"requestsTotal"`
	ErrorsTotal      uint64              `json:"errorsTotal"`
	RateLimitedTotal uint64              `json:"rateLimitedTotal"`
	ForbiddenTotal   uint64              `json:"forbiddenTotal"`
	AvgDurationMs    float64             `json:"avgDurationMs"`
	Routes           map[string]uint64   `json:"routes"`
	Jobs             map[string]JobStats `json:"jobs"`
}

func New() *Collector {
	return &Collector{routes: map[string]uint64{}, jobs: map[string]JobStats{}}
}

// Record counts one finished request. route is the matched pattern, e.g.
// "POST /api/v1/leave/requests/{requestID}/approve"; empty skips the
// per-route count.
func (c *Collector) Record(route string, status int, elapsed time.Duration) {
	c.requests.Add(1)
	c.durationMs.Add(uint64(elapsed.Milliseconds()))
	switch {
	case status >= 500:
		c.serverError.Add(1)
	case status == 429:
		c.rateLimited.Add(1)
	case status == 403:
		c.forbidden.Add(1)
	}
	if route == "" {
		return
	}
	c.mu.Lock()
	c.routes[route]++
	c.mu.Unlock()
}

func (c *Collector) RecordJob(jobType string, failed bool, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.jobs[jobType]
	s.Runs++
	if failed {
		s.Failures++
	}
	s.LastRun = at
	c.jobs[jobType] = s
}

func (c *Collector) Snapshot() Snapshot {
	snap := Snapshot{
		RequestsTotal:    c.requests.Load(),
		ErrorsTotal:      c.serverError.Load(),
		RateLimitedTotal: c.rateLimited.Load(),
		ForbiddenTotal:   c.forbidden.Load(),
	}
	if snap.RequestsTotal > 0 {
		snap.AvgDurationMs = float64(c.durationMs.Load()) / float64(snap.RequestsTotal)
	}
	c.mu.Lock()
	snap.Routes = maps.Clone(c.routes)
	snap.Jobs = maps.Clone(c.jobs)
	c.mu.Unlock()
	return snap
}
