package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"ngo-backend/internal/jobs"
	"ngo-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner.
// Schedules run in the organization's timezone with seconds precision.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(jobRunner.Config().Location()),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// Monthly statement to administrators
	if _, err := s.cron.AddFunc(cfg.MonthlyStatement, s.jobs.SendMonthlyStatement); err != nil {
		logger.Error("Failed to register SendMonthlyStatement job", "error", err)
		return fmt.Errorf("invalid monthly_statement schedule %q: %w", cfg.MonthlyStatement, err)
	}

	// Nightly ledger audit
	if _, err := s.cron.AddFunc(cfg.LedgerAudit, s.jobs.AuditLedger); err != nil {
		logger.Error("Failed to register AuditLedger job", "error", err)
		return fmt.Errorf("invalid ledger_audit schedule %q: %w", cfg.LedgerAudit, err)
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
