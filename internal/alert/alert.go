package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Severity ranks alert urgency. Higher values are more urgent.
type Severity int

const (
	SeverityInfo     Severity = 1
	SeverityLow      Severity = 2
	SeverityMedium   Severity = 3
	SeverityHigh     Severity = 4
	SeverityCritical Severity = 5
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	case SeverityInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a config string to a Severity.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "critical":
		return SeverityCritical, nil
	case "high":
		return SeverityHigh, nil
	case "medium":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	case "info":
		return SeverityInfo, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", v)
	}
}

// Category partitions alerts for independent rate limiting and routing.
type Category string

const (
	CategoryTradingErrors Category = "trading_errors"
	CategorySystemHealth  Category = "system_health"
	CategoryDataPipeline  Category = "data_pipeline"
	CategorySecurity      Category = "security"
	CategoryGeneral       Category = "general"
)

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryTradingErrors,
		CategorySystemHealth,
		CategoryDataPipeline,
		CategorySecurity,
		CategoryGeneral,
	}
}

// Valid reports whether the category is one of the known partitions.
func (c Category) Valid() bool {
	switch c {
	case CategoryTradingErrors, CategorySystemHealth, CategoryDataPipeline, CategorySecurity, CategoryGeneral:
		return true
	}
	return false
}

// Status is the terminal outcome of processing a single alert.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusSent        Status = "SENT"
	StatusFailed      Status = "FAILED"
	StatusRateLimited Status = "RATE_LIMITED"
	StatusFiltered    Status = "FILTERED"
)

// Alert is a single notification event. Treat it as immutable after New.
type Alert struct {
	Title     string
	Message   string
	Severity  Severity
	Category  Category
	Timestamp time.Time
	Component string
	Metadata  map[string]any
}

// New validates and constructs an Alert. Title and message must be non-empty;
// a nil metadata map defaults to an empty one. The timestamp is set to now in UTC.
func New(title, message string, severity Severity, category Category) (*Alert, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("alert title must not be empty")
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("alert message must not be empty")
	}
	if category == "" {
		category = CategoryGeneral
	}
	if !category.Valid() {
		return nil, fmt.Errorf("unknown alert category %q", category)
	}

	return &Alert{
		Title:     title,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]any{},
	}, nil
}

// WithComponent returns a copy carrying the given origin component.
func (a *Alert) WithComponent(component string) *Alert {
	clone := *a
	clone.Component = component
	clone.Metadata = a.Metadata
	return &clone
}

// WithMetadata returns a copy with the given pairs merged into the metadata.
func (a *Alert) WithMetadata(extra map[string]any) *Alert {
	clone := *a
	merged := make(map[string]any, len(a.Metadata)+len(extra))
	for k, v := range a.Metadata {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	clone.Metadata = merged
	return &clone
}

// Subject renders the canonical subject line.
func (a *Alert) Subject() string {
	return fmt.Sprintf("[%s] Alert: %s", a.Severity, a.Title)
}

// Body renders the canonical plain-text body. This layout is the wire
// contract with alert consumers and log scrapers; keep the section labels
// and ordering stable. Metadata keys are emitted in sorted order.
func (a *Alert) Body() string {
	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("Title: %s\n", a.Title))
	b.WriteString(fmt.Sprintf("Severity: %s\n", a.Severity))
	b.WriteString(fmt.Sprintf("Category: %s\n", a.Category))
	b.WriteString(fmt.Sprintf("Timestamp: %s\n", a.Timestamp.UTC().Format(time.RFC3339)))
	if a.Component != "" {
		b.WriteString(fmt.Sprintf("Component: %s\n", a.Component))
	}

	b.WriteString("\nMessage:\n")
	b.WriteString(a.Message)
	b.WriteString("\n")

	if len(a.Metadata) > 0 {
		b.WriteString("\nAdditional Information:\n")
		keys := make([]string, 0, len(a.Metadata))
		for k := range a.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  %s: %v\n", k, a.Metadata[k]))
		}
	}

	b.WriteString("\n--\n")
	b.WriteString(fmt.Sprintf("Generated at %s\n", time.Now().UTC().Format(time.RFC3339)))
	return b.String()
}
