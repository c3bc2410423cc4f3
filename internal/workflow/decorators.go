package workflow

import (
	"context"
	"fmt"
	"time"

	"pipeline-alerts/internal/alert"
	"pipeline-alerts/internal/alerting"
)

// Task is a unit of orchestrated work. Mirrors the shape the scheduler
// invokes, so any tick or job body can be wrapped directly.
type Task func(ctx context.Context) error

// FailureOptions parameterise OnFailure.
type FailureOptions struct {
	// Name labels the wrapped unit in alert titles. Falls back to the
	// active workflow run's name, then to "task".
	Name          string
	Severity      alert.Severity
	Category      alert.Category
	NotifySuccess bool
}

// OnFailure wraps a task so that an error produces an alert carrying the
// error type and message, then returns the original error unchanged.
// Alerting is a side effect here, never error handling: the wrapped task's
// failure semantics are preserved exactly, and a nil manager simply skips
// alerting. Success optionally produces a completion alert.
func OnFailure(mgr *alerting.Manager, provider Provider, opts FailureOptions) func(Task) Task {
	if opts.Severity == 0 {
		opts.Severity = alert.SeverityHigh
	}
	if opts.Category == "" {
		opts.Category = alert.CategoryGeneral
	}

	return func(task Task) Task {
		return func(ctx context.Context) error {
			err := task(ctx)
			if mgr == nil {
				return err
			}

			name := resolveName(ctx, provider, opts.Name)
			if err != nil {
				a, buildErr := alert.New(
					fmt.Sprintf("Task Failed: %s", name),
					fmt.Sprintf("%s failed: %v", name, err),
					opts.Severity,
					opts.Category,
				)
				if buildErr == nil {
					a = a.WithMetadata(map[string]any{
						"error_type":    fmt.Sprintf("%T", err),
						"error_message": err.Error(),
					})
					mgr.Process(ctx, Enrich(ctx, provider, a))
				}
				return err
			}

			if opts.NotifySuccess {
				a, buildErr := alert.New(
					fmt.Sprintf("Task Completed: %s", name),
					fmt.Sprintf("%s completed successfully", name),
					alert.SeverityInfo,
					opts.Category,
				)
				if buildErr == nil {
					mgr.Process(ctx, Enrich(ctx, provider, a))
				}
			}
			return nil
		}
	}
}

// RuntimeOptions parameterise OnLongRuntime.
type RuntimeOptions struct {
	Name      string
	Threshold time.Duration
	Severity  alert.Severity
	Category  alert.Category
}

// OnLongRuntime wraps a task and alerts when its wall-clock duration
// exceeds the threshold, whether the task succeeded or failed. Errors are
// returned unchanged.
func OnLongRuntime(mgr *alerting.Manager, provider Provider, opts RuntimeOptions) func(Task) Task {
	if opts.Severity == 0 {
		opts.Severity = alert.SeverityMedium
	}
	if opts.Category == "" {
		opts.Category = alert.CategorySystemHealth
	}

	return func(task Task) Task {
		return func(ctx context.Context) error {
			start := time.Now()
			err := task(ctx)
			duration := time.Since(start)

			if mgr == nil || opts.Threshold <= 0 || duration <= opts.Threshold {
				return err
			}

			name := resolveName(ctx, provider, opts.Name)
			title := fmt.Sprintf("Long Runtime: %s", name)
			message := fmt.Sprintf("%s completed in %s, exceeding the %s threshold", name, duration.Round(time.Millisecond), opts.Threshold)
			if err != nil {
				title = fmt.Sprintf("Long Runtime Before Failure: %s", name)
				message = fmt.Sprintf("%s failed after %s, exceeding the %s threshold: %v", name, duration.Round(time.Millisecond), opts.Threshold, err)
			}

			a, buildErr := alert.New(title, message, opts.Severity, opts.Category)
			if buildErr == nil {
				a = a.WithMetadata(map[string]any{
					"duration_seconds":  duration.Seconds(),
					"threshold_seconds": opts.Threshold.Seconds(),
				})
				mgr.Process(ctx, Enrich(ctx, provider, a))
			}
			return err
		}
	}
}

func resolveName(ctx context.Context, provider Provider, name string) string {
	if name != "" {
		return name
	}
	if provider != nil {
		if run, ok := provider.Current(ctx); ok && run.Name != "" {
			return run.Name
		}
	}
	return "task"
}
