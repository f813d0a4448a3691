// Package scheduler runs a job on a cron cadence and reports late fires.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSpec fires at second zero of every fifth minute.
const DefaultSpec = "0 */5 * * * *"

// Tick describes one invocation of a job.
type Tick struct {
	Scheduled time.Time // when the fire was due
	Fired     time.Time // when it actually started
	PastDue   bool      // Fired is later than Scheduled by more than the tolerance
}

// Job is invoked once per tick. A returned error is logged and the schedule keeps running.
type Job func(ctx context.Context, tick Tick) error

// Config holds scheduler configuration.
type Config struct {
	Spec             string        // cron expression, seconds field optional
	RunOnStartup     bool          // fire once immediately when Run starts
	PastDueTolerance time.Duration // lateness tolerated before a tick counts as past due
}

// DefaultConfig returns the five-minute cadence used by the collector.
func DefaultConfig() Config {
	return Config{
		Spec:             DefaultSpec,
		RunOnStartup:     true,
		PastDueTolerance: time.Second,
	}
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Parse validates a cron expression.
func Parse(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Scheduler fires a Job on a cron.Schedule.
type Scheduler struct {
	cfg      Config
	schedule cron.Schedule
	logger   *zap.Logger
	now      func() time.Time
}

// New parses cfg.Spec and returns a Scheduler.
func New(cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	sched, err := Parse(cfg.Spec)
	if err != nil {
		return nil, err
	}
	return NewWithSchedule(cfg, sched, logger), nil
}

// NewWithSchedule uses an already built schedule; cfg.Spec is ignored.
func NewWithSchedule(cfg Config, schedule cron.Schedule, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:      cfg,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled. Fires never overlap: a job that overruns the next
// slot causes one late (past-due) fire, and any further missed slots are skipped.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	s.logger.Info("scheduler started",
		zap.String("spec", s.cfg.Spec),
		zap.Bool("run_on_startup", s.cfg.RunOnStartup),
	)

	last := s.now()
	if s.cfg.RunOnStartup {
		s.fire(ctx, job, Tick{Scheduled: last, Fired: last})
	}

	for {
		next := s.schedule.Next(last)
		if next.IsZero() {
			s.logger.Warn("schedule has no further activations")
			return nil
		}

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return nil
		case <-timer.C:
		}

		fired := s.now()
		tick := Tick{
			Scheduled: next,
			Fired:     fired,
			PastDue:   fired.Sub(next) > s.cfg.PastDueTolerance,
		}
		s.fire(ctx, job, tick)

		last = next
		if tick.PastDue {
			// no catch-up: resume from the late fire
			last = fired
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, job Job, tick Tick) {
	start := s.now()
	if err := job(ctx, tick); err != nil {
		s.logger.Error("scheduled job failed",
			zap.Time("scheduled", tick.Scheduled),
			zap.Bool("past_due", tick.PastDue),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("scheduled job finished",
		zap.Time("scheduled", tick.Scheduled),
		zap.Duration("duration", s.now().Sub(start)),
	)
}
