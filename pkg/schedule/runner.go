package schedule

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/mscrnt/mcadecode/pkg/scan"
)

// Runner manages scheduled decode scans.
type Runner struct {
	cron      *cron.Cron
	store     *Store
	database  *db.DB
	scanOpts  scan.Options
	jobs      map[int64]cron.EntryID
	mu        sync.RWMutex
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewRunner creates a new schedule runner. scanOpts.Logger is overridden
// with logger if unset.
func NewRunner(database *db.DB, scanOpts scan.Options, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if scanOpts.Logger == nil {
		scanOpts.Logger = logger
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		cron:     cron.New(cron.WithParser(cronParser)),
		store:    NewStore(database),
		database: database,
		scanOpts: scanOpts,
		jobs:     make(map[int64]cron.EntryID),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the scheduler.
func (r *Runner) Start() error {
	r.logger.Println("Starting scheduler...")

	enabled := true
	schedules, err := r.store.List(ScheduleFilter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	for _, sched := range schedules {
		if err := r.registerSchedule(sched); err != nil {
			r.logger.Printf("Failed to register schedule %s: %v", sched.Name, err)
		}
	}

	r.cron.Start()

	r.logger.Printf("Scheduler started with %d active schedules", len(r.jobs))
	return nil
}

// Stop stops the scheduler.
func (r *Runner) Stop() {
	r.logger.Println("Stopping scheduler...")

	r.cancel()

	ctx := r.cron.Stop()

	select {
	case <-ctx.Done():
		r.logger.Println("All jobs completed")
	case <-time.After(5 * time.Minute):
		r.logger.Println("Timeout waiting for jobs to complete")
	}

	r.logger.Println("Scheduler stopped")
}

// RegisterSchedule adds a schedule to the runner.
func (r *Runner) RegisterSchedule(scheduleID int64) error {
	sched, err := r.store.Get(scheduleID)
	if err != nil {
		return err
	}

	return r.registerSchedule(sched)
}

// UnregisterSchedule removes a schedule from the runner.
func (r *Runner) UnregisterSchedule(scheduleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entryID, exists := r.jobs[scheduleID]; exists {
		r.cron.Remove(entryID)
		delete(r.jobs, scheduleID)
		r.logger.Printf("Unregistered schedule ID %d", scheduleID)
	}

	return nil
}

// RefreshSchedule updates a schedule in the runner.
func (r *Runner) RefreshSchedule(scheduleID int64) error {
	if err := r.UnregisterSchedule(scheduleID); err != nil {
		return err
	}

	sched, err := r.store.Get(scheduleID)
	if err != nil {
		return err
	}

	if sched.Enabled {
		return r.registerSchedule(sched)
	}

	return nil
}

func (r *Runner) registerSchedule(sched *Schedule) error {
	if !sched.Enabled {
		return nil
	}

	job := r.createJob(sched)

	entryID, err := r.cron.AddFunc(sched.CronExpr, job)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	r.mu.Lock()
	r.jobs[sched.ID] = entryID
	r.mu.Unlock()

	r.logger.Printf("Registered schedule '%s' (ID: %d) with cron expression: %s",
		sched.Name, sched.ID, sched.CronExpr)

	return nil
}

func (r *Runner) createJob(sched *Schedule) func() {
	return func() {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		r.logger.Printf("Executing scheduled decode scan: %s", sched.Name)

		go func() {
			if err := r.executeSchedule(sched); err != nil {
				r.logger.Printf("Failed to execute schedule %s: %v", sched.Name, err)
			}
		}()
	}
}

// executeSchedule runs a decode scan for a scheduled path.
func (r *Runner) executeSchedule(sched *Schedule) error {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Printf("Panic in schedule %s: %v", sched.Name, p)
		}
	}()

	startTime := time.Now()
	run, err := scan.File(r.database, "schedule:"+sched.Name, sched.Path, r.scanOpts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if err := r.store.UpdateLastRun(sched.ID, run.ID); err != nil {
		r.logger.Printf("Failed to update schedule last run: %v", err)
	}

	r.logger.Printf("Completed run %d for schedule %s (%d events, %d warnings, duration: %s)",
		run.ID, sched.Name, run.EventCount, run.WarningCount, time.Since(startTime))

	return nil
}

// CheckDue runs any overdue schedules immediately.
func (r *Runner) CheckDue() error {
	schedules, err := r.store.GetDue()
	if err != nil {
		return fmt.Errorf("failed to get due schedules: %w", err)
	}

	for _, sched := range schedules {
		r.logger.Printf("Running overdue schedule: %s", sched.Name)
		go func(s *Schedule) {
			if err := r.executeSchedule(s); err != nil {
				r.logger.Printf("Failed to execute overdue schedule %s: %v", s.Name, err)
			}
		}(sched)
	}

	return nil
}

// ListJobs returns information about all scheduled jobs.
func (r *Runner) ListJobs() []cron.Entry {
	return r.cron.Entries()
}
