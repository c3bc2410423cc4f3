package alert

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Factory helpers build the recurring alert shapes so callers do not
// hand-assemble severity/category pairings. The pairings here are policy:
// callers cannot override them.

func mustNew(title, message string, severity Severity, category Category) *Alert {
	a, err := New(title, message, severity, category)
	if err != nil {
		// Titles and messages below are compile-time constants; a failure
		// here is a programming error in this file.
		panic(fmt.Sprintf("alert factory produced invalid alert: %v", err))
	}
	return a
}

// NewOrderFailure describes a rejected or errored order submission.
func NewOrderFailure(symbol, side string, quantity, price decimal.Decimal, reason string) *Alert {
	a := mustNew(
		fmt.Sprintf("Order Failure: %s %s", side, symbol),
		fmt.Sprintf("Order submission failed for %s %s: %s", side, symbol, reason),
		SeverityHigh,
		CategoryTradingErrors,
	)
	return a.WithMetadata(map[string]any{
		"symbol":   symbol,
		"side":     side,
		"quantity": quantity.String(),
		"price":    price.String(),
		"reason":   reason,
	})
}

// NewDatabaseConnection describes a lost or failing database connection.
func NewDatabaseConnection(database string, err error) *Alert {
	a := mustNew(
		"Database Connection Failure",
		fmt.Sprintf("Unable to reach database %s: %v", database, err),
		SeverityCritical,
		CategorySystemHealth,
	)
	return a.WithMetadata(map[string]any{
		"database": database,
		"error":    err.Error(),
	})
}

// NewAPIError describes a failed call to an upstream API.
func NewAPIError(api, endpoint string, statusCode int, err error) *Alert {
	msg := fmt.Sprintf("API call to %s %s failed", api, endpoint)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	a := mustNew(
		fmt.Sprintf("API Error: %s", api),
		msg,
		SeverityHigh,
		CategoryDataPipeline,
	)
	meta := map[string]any{
		"api":      api,
		"endpoint": endpoint,
	}
	if statusCode != 0 {
		meta["status_code"] = statusCode
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	return a.WithMetadata(meta)
}

// NewPerformanceThreshold describes a metric crossing its configured bound.
func NewPerformanceThreshold(metric string, value, threshold decimal.Decimal) *Alert {
	a := mustNew(
		fmt.Sprintf("Performance Threshold Exceeded: %s", metric),
		fmt.Sprintf("Metric %s reached %s, above the configured threshold of %s", metric, value.String(), threshold.String()),
		SeverityMedium,
		CategorySystemHealth,
	)
	return a.WithMetadata(map[string]any{
		"metric":    metric,
		"value":     value.String(),
		"threshold": threshold.String(),
	})
}

// NewSecurity describes a security-relevant event. Always CRITICAL/SECURITY.
func NewSecurity(event, details string) *Alert {
	a := mustNew(
		fmt.Sprintf("Security Event: %s", event),
		details,
		SeverityCritical,
		CategorySecurity,
	)
	return a.WithMetadata(map[string]any{"event": event})
}

// NewSystemStartup announces a component starting up.
func NewSystemStartup(component, ver string) *Alert {
	a := mustNew(
		"System Startup",
		fmt.Sprintf("%s started (version %s)", component, ver),
		SeverityInfo,
		CategorySystemHealth,
	)
	return a.WithComponent(component).WithMetadata(map[string]any{"version": ver})
}

// NewSystemShutdown announces a component stopping.
func NewSystemShutdown(component, reason string) *Alert {
	a := mustNew(
		"System Shutdown",
		fmt.Sprintf("%s is shutting down: %s", component, reason),
		SeverityInfo,
		CategorySystemHealth,
	)
	return a.WithComponent(component).WithMetadata(map[string]any{"reason": reason})
}

// NewDataFreshness describes a dataset whose latest observation is older
// than its allowed staleness.
func NewDataFreshness(dataset string, lastUpdate time.Time, maxAge time.Duration) *Alert {
	age := time.Since(lastUpdate).Round(time.Second)
	a := mustNew(
		fmt.Sprintf("Stale Data: %s", dataset),
		fmt.Sprintf("Dataset %s was last updated %s ago (limit %s)", dataset, age, maxAge),
		SeverityHigh,
		CategoryDataPipeline,
	)
	return a.WithMetadata(map[string]any{
		"dataset":     dataset,
		"last_update": lastUpdate.UTC().Format(time.RFC3339),
		"age":         age.String(),
		"max_age":     maxAge.String(),
	})
}

// NewCircuitBreakerOpened reports that a delivery circuit breaker tripped.
func NewCircuitBreakerOpened(name string, failures int) *Alert {
	a := mustNew(
		fmt.Sprintf("Circuit Breaker Opened: %s", name),
		fmt.Sprintf("Circuit breaker %s opened after %d consecutive failures", name, failures),
		SeverityHigh,
		CategorySystemHealth,
	)
	return a.WithMetadata(map[string]any{
		"breaker":  name,
		"failures": failures,
	})
}
