// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
scheduler.go - Backup Scheduling

This file runs backups at regular intervals as a supervised service.

Each run:
  - Backs up the previous calendar month
  - Backs up everything when IncludeFull is set
  - Applies the retention policy

Timer Logic:
  - For intervals >= 24h: run at PreferredHour, skipping whole days for longer intervals
  - For shorter intervals: now + interval

An empty month is logged at info level and is not a failure. A run that finds
another backup or restore in progress skips that scope quietly. Runs are rate
limited so a misconfigured interval cannot produce a tight backup loop.

Integration:
Scheduler implements suture.Service; the serve command adds it to the
supervisor tree.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/metrics"
)

// MinScheduleSpacing is the minimum time between two scheduled runs.
const MinScheduleSpacing = time.Minute

// ScheduleConfig configures the Scheduler.
type ScheduleConfig struct {
	// Interval between runs. Default: 24h
	Interval time.Duration

	// PreferredHour (0-23) for intervals of a day or more. Default: 2
	PreferredHour int

	// IncludeFull adds a full backup to every run
	IncludeFull bool

	// RetentionMaxCount is passed to History.Prune; zero keeps everything
	RetentionMaxCount int
}

// Scheduler produces backups on a timer.
type Scheduler struct {
	producer *Producer
	history  *History
	removers []ArtifactRemover
	cfg      ScheduleConfig
	limiter  *rate.Limiter
	now      func() time.Time
	log      zerolog.Logger
}

// NewScheduler returns a scheduler. history may be nil, which disables
// retention and schedule bookkeeping.
func NewScheduler(p *Producer, history *History, cfg ScheduleConfig, removers ...ArtifactRemover) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.PreferredHour < 0 || cfg.PreferredHour > 23 {
		cfg.PreferredHour = 2
	}
	return &Scheduler{
		producer: p,
		history:  history,
		removers: removers,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(MinScheduleSpacing), 1),
		now:      p.opts.now,
		log:      logging.WithComponent("backup-scheduler"),
	}
}

// Serve implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	next := s.NextRun(s.now())
	s.saveSchedule(nil, next)
	s.log.Info().Time("next_run", next).Dur("interval", s.cfg.Interval).Msg("Backup scheduler started")

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Backup scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			last := s.now()
			if s.limiter.Allow() {
				if err := s.RunOnce(ctx); err != nil {
					s.log.Error().Err(err).Msg("Scheduled backup failed")
				}
			} else {
				s.log.Warn().Msg("Scheduled backup skipped, runs are too frequent")
			}

			next = s.NextRun(s.now())
			s.saveSchedule(&last, next)
			metrics.RecordSchedulerRun(last, next)
			timer.Reset(time.Until(next))
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Scheduler) String() string {
	return "backup-scheduler"
}

// RunOnce performs one scheduled run. Empty months and a busy guard are not
// errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx = logging.ContextWithLogger(ctx, s.log)
	scopes := []Scope{PreviousMonth(s.now())}
	if s.cfg.IncludeFull {
		scopes = append(scopes, Full())
	}

	var errs []error
	for _, scope := range scopes {
		artifact, err := s.producer.Produce(ctx, scope)
		switch {
		case errors.Is(err, ErrEmptySelection):
			continue
		case errors.Is(err, ErrBusy):
			s.log.Debug().Str("scope", scope.String()).Msg("Scheduled backup skipped, another backup or restore is running")
			continue
		case err != nil:
			errs = append(errs, fmt.Errorf("%s backup: %w", scope, err))
		default:
			s.log.Info().Str("name", artifact.Name).Str("location", artifact.Location).Msg("Scheduled backup completed")
		}
	}

	if s.history != nil && s.cfg.RetentionMaxCount > 0 {
		if _, err := s.history.Prune(s.cfg.RetentionMaxCount, s.removers...); err != nil {
			errs = append(errs, fmt.Errorf("apply retention: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NextRun returns the next run time after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	interval := s.cfg.Interval

	if interval >= 24*time.Hour {
		next := time.Date(now.Year(), now.Month(), now.Day(),
			s.cfg.PreferredHour, 0, 0, 0, now.Location())

		// Already past the preferred hour today
		if next.Before(now) {
			next = next.Add(24 * time.Hour)
		}

		if interval > 24*time.Hour {
			days := int(interval.Hours() / 24)
			next = next.Add(time.Duration(days-1) * 24 * time.Hour)
		}
		return next
	}

	return now.Add(interval)
}

func (s *Scheduler) saveSchedule(last *time.Time, next time.Time) {
	if s.history == nil {
		return
	}
	if err := s.history.SetSchedule(last, &next); err != nil {
		s.log.Warn().Err(err).Msg("Failed to save backup schedule")
	}
}
