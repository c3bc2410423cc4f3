// Package workflow attaches orchestration context to alerts and provides
// decorators that instrument units of work with failure and runtime alerts.
package workflow

import (
	"context"
	"fmt"

	"pipeline-alerts/internal/alert"
)

// Run kinds.
const (
	KindFlow = "flow"
	KindTask = "task"
)

// Context identifies the orchestrated execution an alert originated from.
type Context struct {
	Kind  string
	Name  string
	RunID string
}

// Provider resolves the workflow execution surrounding the caller, if any.
// Production code installs the run into context.Context; tests typically use
// NopProvider.
type Provider interface {
	Current(ctx context.Context) (Context, bool)
}

type runKey struct{}

// WithRun returns a context carrying the given workflow run.
func WithRun(ctx context.Context, run Context) context.Context {
	return context.WithValue(ctx, runKey{}, run)
}

// RunProvider reads the workflow run from context.Context.
type RunProvider struct{}

func (RunProvider) Current(ctx context.Context) (Context, bool) {
	run, ok := ctx.Value(runKey{}).(Context)
	return run, ok
}

// NopProvider never reports an active run.
type NopProvider struct{}

func (NopProvider) Current(context.Context) (Context, bool) {
	return Context{}, false
}

// Enrich augments an alert with the active run's identity. Without an
// active run the alert is returned unchanged. The component is synthesised
// from the run only when not already set.
func Enrich(ctx context.Context, provider Provider, a *alert.Alert) *alert.Alert {
	if provider == nil {
		return a
	}
	run, ok := provider.Current(ctx)
	if !ok {
		return a
	}

	enriched := a.WithMetadata(map[string]any{
		"run_kind": run.Kind,
		"run_name": run.Name,
		"run_id":   run.RunID,
	})
	if enriched.Component == "" {
		enriched = enriched.WithComponent(componentFor(run))
	}
	return enriched
}

func componentFor(run Context) string {
	switch run.Kind {
	case KindFlow:
		return fmt.Sprintf("Flow: %s", run.Name)
	case KindTask:
		return fmt.Sprintf("Task: %s", run.Name)
	default:
		return run.Name
	}
}
