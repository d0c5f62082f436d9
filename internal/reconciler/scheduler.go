package reconciler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/observability"
)

// JobFunc is one reconciliation pass. It returns how many resources it
// acted on. Per-item failures are handled inside the job; an error here
// means the whole pass could not run.
type JobFunc func(ctx context.Context) (int, error)

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

// Scheduler runs named jobs on fixed intervals. The manual run-all path
// reuses the same job functions.
type Scheduler struct {
	jobs []job
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{log: log}
}

func (s *Scheduler) Register(name string, interval time.Duration, fn JobFunc) {
	s.jobs = append(s.jobs, job{name: name, interval: interval, fn: fn})
}

// Run starts one ticker goroutine per job and blocks until ctx is
// cancelled. The first tick of each job fires after its interval, not at
// startup, so a restarting service does not stampede the engine.
func (s *Scheduler) Run(ctx context.Context) {
	for _, j := range s.jobs {
		go s.runJob(ctx, j)
	}
	<-ctx.Done()
}

func (s *Scheduler) runJob(ctx context.Context, j job) {
	log := observability.JobLogger(s.log, j.name)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.invoke(ctx, j, log)
		}
	}
}

func (s *Scheduler) invoke(ctx context.Context, j job, log *zap.Logger) (int, error) {
	start := time.Now()
	count, err := j.fn(ctx)
	observability.ReconcileDuration.WithLabelValues(j.name).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ReconcileRuns.WithLabelValues(j.name, "error").Inc()
		log.Error("reconciliation pass failed", zap.Error(err))
		return count, err
	}
	observability.ReconcileRuns.WithLabelValues(j.name, "ok").Inc()
	if count > 0 {
		log.Info("reconciliation pass complete", zap.Int("acted_on", count))
	}
	return count, nil
}

// JobResult is one job's outcome from a manual run-all.
type JobResult struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// RunAll invokes every registered job once, sequentially, and returns
// per-job counts. A failing job is reported in its result and does not
// stop the rest.
func (s *Scheduler) RunAll(ctx context.Context) map[string]JobResult {
	results := make(map[string]JobResult, len(s.jobs))
	for _, j := range s.jobs {
		log := observability.JobLogger(s.log, j.name)
		count, err := s.invoke(ctx, j, log)
		res := JobResult{Count: count}
		if err != nil {
			res.Error = err.Error()
		}
		results[j.name] = res
	}
	return results
}
