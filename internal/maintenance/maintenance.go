// Package maintenance runs scheduled ingestion jobs on cron expressions.
// The ingest binary's `nightly` command is a long-running process that owns
// one Scheduler; each job receives the process context so SIGINT cancels a
// run in flight.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled task.
type Job struct {
	Name string
	Spec string // standard 5-field cron expression or @descriptor
	Run  func(ctx context.Context)
}

// Scheduler wraps a cron runner. A job still running when its next tick
// arrives is skipped, not stacked.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates an idle scheduler.
func New(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add registers job and returns its first run time.
func (s *Scheduler) Add(ctx context.Context, job Job) (time.Time, error) {
	id, err := s.cron.AddFunc(job.Spec, func() {
		start := time.Now()
		s.logger.Info("Job started", "job", job.Name)
		job.Run(ctx)
		s.logger.Info("Job finished", "job", job.Name, "duration", time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	// Next is only populated once the runner starts; compute it directly.
	next := s.cron.Entry(id).Schedule.Next(time.Now())
	s.logger.Info("Job scheduled", "job", job.Name, "spec", job.Spec, "next_run", next)
	return next, nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits up
// to stopTimeout for running jobs to return.
func (s *Scheduler) Run(ctx context.Context, stopTimeout time.Duration) {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", s.Len())

	<-ctx.Done()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info("Scheduler stopped")
	case <-time.After(stopTimeout):
		s.logger.Warn("Scheduler stop timed out", "timeout", stopTimeout)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
