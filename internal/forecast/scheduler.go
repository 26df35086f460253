package forecast

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/majako/sales-forecaster/internal/store"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// Scheduler manages the periodic maintenance tasks: re-attaching
// polling to a pending job after a restart, and pruning jobs that were
// abandoned long enough ago that their results are gone.
type Scheduler struct {
	cron     *cron.Cron
	service  *Service
	store    store.Store
	log      *slog.Logger
	pruneAge time.Duration
}

// NewScheduler creates a Scheduler that runs maintenance on a schedule.
func NewScheduler(
	svc *Service,
	s store.Store,
	resumeInterval time.Duration,
	pruneInterval time.Duration,
	pruneAge time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	sched := &Scheduler{
		cron:     c,
		service:  svc,
		store:    s,
		log:      log,
		pruneAge: pruneAge,
	}

	if _, err := c.AddFunc(
		"@every "+resumeInterval.String(),
		sched.runResume,
	); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(
		"@every "+pruneInterval.String(),
		sched.runPrune,
	); err != nil {
		return nil, err
	}

	return sched, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runResume() {
	s.run("poll_resume", func(ctx context.Context) error {
		return s.service.Resume(ctx)
	})
}

func (s *Scheduler) runPrune() {
	s.run("job_prune", func(ctx context.Context) error {
		n, err := s.store.PruneStaleJobs(ctx, s.pruneAge)
		if err != nil {
			return err
		}
		if n > 0 {
			s.log.Info("stale jobs pruned", "count", n)
		}
		return nil
	})
}

// run wraps a task with job-run bookkeeping so the last outcome of each
// task is visible through the admin API.
func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	ctx := context.Background()

	runID, err := s.store.InsertJobRun(ctx, name)
	if err != nil {
		s.log.Error("recording job run failed", "job", name, "error", err)
		runID = ""
	}

	taskErr := fn(ctx)

	status, errText := domain.JobSucceeded, ""
	if taskErr != nil {
		status, errText = domain.JobFailed, taskErr.Error()
		s.log.Error("scheduled task failed", "job", name, "error", taskErr)
	}

	if runID != "" {
		if err := s.store.CompleteJobRun(ctx, runID, status, errText); err != nil {
			s.log.Error("completing job run failed", "job", name, "error", err)
		}
	}
}
