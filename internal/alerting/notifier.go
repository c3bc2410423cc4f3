package alerting

import (
	"context"

	"pipeline-alerts/internal/alert"
)

// Channel delivers alerts to their destination. Implementations convert
// transport failures into a boolean result; they never panic or propagate
// transport errors to the manager.
type Channel interface {
	// Deliver attempts to send the alert. False means the alert did not
	// reach its destination, whether because the channel is unavailable
	// or because the transport failed.
	Deliver(ctx context.Context, a *alert.Alert) bool
	// Available reports whether the channel is enabled, configured, and
	// not short-circuited.
	Available() bool
	// Status describes the channel for observability snapshots. It must
	// not leak credentials.
	Status() map[string]any
}

// Recorder persists processed alerts for auditing. Implementations are
// optional; recording failures are logged by the manager and never affect
// the outcome of a send.
type Recorder interface {
	Record(ctx context.Context, a *alert.Alert, status alert.Status) error
}
