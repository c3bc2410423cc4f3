// Package service runs the long-lived monitor loop: a scheduled tick that
// emits heartbeats, watches channel health, and prunes the audit log.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pipeline-alerts/internal/alert"
	"pipeline-alerts/internal/alerting"
	"pipeline-alerts/internal/scheduler"
	"pipeline-alerts/internal/storage"
	"pipeline-alerts/internal/workflow"
)

// Options tune the monitor loop.
type Options struct {
	Heartbeat            bool
	Retention            time.Duration
	LongRuntimeThreshold time.Duration
	AdvisoryLockKey      int64
}

// Service orchestrates the periodic monitor tick. The tick body is wrapped
// by the workflow decorators, so a failing or slow tick produces alerts
// through the same pipeline it supervises.
type Service struct {
	sched    *scheduler.Scheduler
	manager  *alerting.Manager
	log      storage.AlertLog
	locker   storage.AdvisoryLocker
	provider workflow.Provider
	logger   zerolog.Logger
	opts     Options

	tick workflow.Task
}

// New constructs the monitor service. log and locker may be nil when the
// database is not configured; the loop then skips retention and locking.
func New(opts Options, sched *scheduler.Scheduler, manager *alerting.Manager, log storage.AlertLog, locker storage.AdvisoryLocker, logger zerolog.Logger) *Service {
	s := &Service{
		sched:    sched,
		manager:  manager,
		log:      log,
		locker:   locker,
		provider: workflow.RunProvider{},
		logger:   logger.With().Str("component", "monitor").Logger(),
		opts:     opts,
	}

	task := workflow.Task(s.executeTick)
	if opts.LongRuntimeThreshold > 0 {
		task = workflow.OnLongRuntime(manager, s.provider, workflow.RuntimeOptions{
			Threshold: opts.LongRuntimeThreshold,
			Severity:  alert.SeverityMedium,
			Category:  alert.CategorySystemHealth,
		})(task)
	}
	s.tick = workflow.OnFailure(manager, s.provider, workflow.FailureOptions{
		Severity: alert.SeverityHigh,
		Category: alert.CategorySystemHealth,
	})(task)

	return s
}

// Run begins the monitor loop.
func (s *Service) Run(ctx context.Context) error {
	if s.sched == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.sched.Run(ctx, s.ProcessTick)
}

// ProcessTick executes a single monitor tick under the advisory lock.
func (s *Service) ProcessTick(ctx context.Context, tick time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("tick", tick).Msg("skip tick because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	ctx = workflow.WithRun(ctx, workflow.Context{
		Kind:  workflow.KindFlow,
		Name:  "alert_monitor",
		RunID: tick.UTC().Format(time.RFC3339),
	})
	return s.tick(ctx)
}

func (s *Service) executeTick(ctx context.Context) error {
	if !s.manager.ChannelAvailable() {
		s.logger.Warn().Msg("delivery channel unavailable")
	}

	if s.opts.Heartbeat {
		status, err := s.manager.Send(ctx,
			"Monitor Heartbeat",
			"The alert monitor loop is alive.",
			alert.SeverityInfo,
			alert.CategorySystemHealth,
			"",
			map[string]any{"stats": heartbeatSummary(s.manager.Stats())},
		)
		if err != nil {
			return fmt.Errorf("send heartbeat: %w", err)
		}
		s.logger.Debug().Str("status", string(status)).Msg("heartbeat processed")
	}

	if s.log != nil && s.opts.Retention > 0 {
		cutoff := time.Now().UTC().Add(-s.opts.Retention)
		deleted, err := s.log.DeleteAlertsBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("prune alert log: %w", err)
		}
		if deleted > 0 {
			s.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("pruned audit records")
		}
	}

	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.opts.AdvisoryLockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.opts.AdvisoryLockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}

func heartbeatSummary(stats alerting.Stats) string {
	return fmt.Sprintf("total=%d sent=%d failed=%d rate_limited=%d filtered=%d",
		stats.Total, stats.Sent, stats.Failed, stats.RateLimited, stats.Filtered)
}
