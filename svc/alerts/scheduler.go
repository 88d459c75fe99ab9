package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/pkg/metrics"
)

const jobName = "nda_expiry_alerts"

// StatusRefresher rewrites stored agreement statuses that drifted.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context, asOf time.Time) (int, error)
}

// RunSummary reports one scheduled run.
type RunSummary struct {
	Skipped   bool    `json:"skipped"`
	Plan      *Result `json:"plan,omitempty"`
	Delivery  Report  `json:"delivery"`
	Refreshed int     `json:"refreshed"`
}

// Scheduler runs the alert job once a day at a fixed UTC time.
type Scheduler struct {
	job       *Job
	deliverer *Deliverer
	refresher StatusRefresher
	lock      Lock
	metrics   *metrics.Job
	log       *slog.Logger
	now       func() time.Time

	horizon int
	hour    int
	minute  int
	lockTTL time.Duration
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLock replaces the in-process lock, typically with a RedisLock shared
// by all replicas.
func WithLock(l Lock) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.lock = l
		}
	}
}

func WithSchedulerMetrics(m *metrics.Job) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler validates cfg.RunAt and cfg.HorizonDays.
func NewScheduler(job *Job, deliverer *Deliverer, refresher StatusRefresher, cfg Config, opts ...SchedulerOption) (*Scheduler, error) {
	if job == nil || deliverer == nil || refresher == nil {
		return nil, errors.New("alerts: job, deliverer and status refresher are required")
	}
	if cfg.HorizonDays <= 0 {
		return nil, ErrInvalidHorizon
	}
	at, err := time.Parse("15:04", cfg.RunAt)
	if err != nil {
		return nil, errors.Join(ErrInvalidRunAt, err)
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 25 * time.Hour
	}

	s := &Scheduler{
		job:       job,
		deliverer: deliverer,
		refresher: refresher,
		lock:      newLocalLock(),
		log:       logger.Nop(),
		now:       time.Now,
		horizon:   cfg.HorizonDays,
		hour:      at.Hour(),
		minute:    at.Minute(),
		lockTTL:   ttl,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("alerts.scheduler"))
	return s, nil
}

// Start blocks, running the job daily until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		next := s.Next(s.now())
		s.log.InfoContext(ctx, "next alert run scheduled", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx, s.now()); err != nil {
			s.log.ErrorContext(ctx, "scheduled alert run failed", logger.Error(err))
		}
	}
}

// Next returns the first run time strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce plans, delivers and refreshes for asOf. Each calendar day runs at
// most once: the lock is keyed by date and kept after a run that sent mail.
func (s *Scheduler) RunOnce(ctx context.Context, asOf time.Time) (*RunSummary, error) {
	start := time.Now()
	key := fmt.Sprintf("alerts:run:%s", asOf.UTC().Format(time.DateOnly))

	release, ok, err := s.lock.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		s.metrics.Observe(jobName, "failure", time.Since(start))
		return nil, fmt.Errorf("acquire alert lock: %w", err)
	}
	if !ok {
		s.metrics.Observe(jobName, "skipped", 0)
		s.log.InfoContext(ctx, "alert run skipped, already claimed", slog.String("key", key))
		return &RunSummary{Skipped: true}, nil
	}

	plan, err := s.job.Run(ctx, Params{HorizonDays: s.horizon, AsOf: asOf})
	if err != nil {
		// Nothing was sent, so another attempt today is safe.
		if relErr := release(ctx); relErr != nil {
			s.log.WarnContext(ctx, "failed to release alert lock", logger.Error(relErr))
		}
		s.metrics.Observe(jobName, "failure", time.Since(start))
		return nil, err
	}

	sum := &RunSummary{Plan: plan}
	var errs []error

	sum.Delivery, err = s.deliverer.Deliver(ctx, plan)
	s.metrics.Emails(sum.Delivery.Sent, sum.Delivery.Failed)
	if err != nil {
		errs = append(errs, err)
	}

	sum.Refreshed, err = s.refresher.RefreshStatuses(ctx, asOf)
	if err != nil {
		errs = append(errs, fmt.Errorf("refresh statuses: %w", err))
	}

	outcome := "success"
	if len(errs) > 0 {
		outcome = "failure"
	}
	s.metrics.Observe(jobName, outcome, time.Since(start))
	s.log.InfoContext(ctx, "alert run finished",
		slog.String("outcome", outcome),
		logger.Count("sent", sum.Delivery.Sent),
		logger.Count("failed", sum.Delivery.Failed),
		logger.Count("refreshed", sum.Refreshed),
		logger.Duration(time.Since(start)),
	)
	return sum, errors.Join(errs...)
}
