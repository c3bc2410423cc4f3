// Package alerting contains the alert dispatch pipeline: a manager that
// applies severity, category, and rate-limit policy before handing alerts
// to a delivery channel.
package alerting

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"pipeline-alerts/internal/alert"
	"pipeline-alerts/internal/ratelimit"
)

// Config carries the manager's policy knobs.
type Config struct {
	Enabled     bool
	MinSeverity alert.Severity
	// RateLimiting toggles the limiter; the limits themselves live on the
	// limiter and apply uniformly across categories.
	RateLimiting bool
	// Categories maps each category to its administrative enable flag.
	// Categories absent from the map are treated as enabled.
	Categories map[alert.Category]bool
}

// Stats is a point-in-time snapshot of processing counters.
type Stats struct {
	Total       int64                                      `json:"total_alerts"`
	Sent        int64                                      `json:"sent_alerts"`
	Failed      int64                                      `json:"failed_alerts"`
	RateLimited int64                                      `json:"rate_limited_alerts"`
	Filtered    int64                                      `json:"filtered_alerts"`
	BySeverity  map[string]int64                           `json:"by_severity"`
	ByCategory  map[string]int64                           `json:"by_category"`
	RateLimiter map[alert.Category]ratelimit.CategoryStats `json:"rate_limiter"`
	Channel     map[string]any                             `json:"channel"`
}

// Manager is the single entry point for dispatching alerts. It owns the
// statistics counters and the rate limiter; the channel owns its breaker.
// Safe for concurrent use.
type Manager struct {
	cfg      Config
	channel  Channel
	limiter  *ratelimit.Limiter
	recorder Recorder
	logger   zerolog.Logger

	mu          sync.Mutex
	total       int64
	sent        int64
	failed      int64
	rateLimited int64
	filtered    int64
	bySeverity  map[string]int64
	byCategory  map[string]int64
}

// New constructs a Manager. recorder may be nil when auditing is disabled.
func New(cfg Config, channel Channel, limiter *ratelimit.Limiter, recorder Recorder, logger zerolog.Logger) *Manager {
	if cfg.MinSeverity == 0 {
		cfg.MinSeverity = alert.SeverityMedium
	}
	if limiter == nil {
		limiter = ratelimit.New(0, 0)
	}
	return &Manager{
		cfg:        cfg,
		channel:    channel,
		limiter:    limiter,
		recorder:   recorder,
		logger:     logger.With().Str("component", "alert_manager").Logger(),
		bySeverity: make(map[string]int64),
		byCategory: make(map[string]int64),
	}
}

// Send constructs an alert from the given fields and processes it.
// Construction errors (empty title or message) fail fast.
func (m *Manager) Send(ctx context.Context, title, message string, severity alert.Severity, category alert.Category, component string, metadata map[string]any) (alert.Status, error) {
	a, err := alert.New(title, message, severity, category)
	if err != nil {
		return "", err
	}
	if component != "" {
		a = a.WithComponent(component)
	}
	if len(metadata) > 0 {
		a = a.WithMetadata(metadata)
	}
	return m.Process(ctx, a), nil
}

// Process runs the alert through the policy pipeline. The filter order is
// fixed: global enable, then severity, then category, then rate limit, then
// delivery. Operators diagnose dropped alerts by which counter moved, so
// the order must not change.
func (m *Manager) Process(ctx context.Context, a *alert.Alert) alert.Status {
	m.countIncoming(a)

	if !m.cfg.Enabled {
		return m.finish(ctx, a, alert.StatusFiltered)
	}

	if a.Severity < m.cfg.MinSeverity {
		m.bump(&m.filtered)
		m.logger.Debug().
			Str("title", a.Title).
			Str("severity", a.Severity.String()).
			Str("min_severity", m.cfg.MinSeverity.String()).
			Msg("alert below minimum severity")
		return m.finish(ctx, a, alert.StatusFiltered)
	}

	if !m.categoryEnabled(a.Category) {
		m.bump(&m.filtered)
		m.logger.Debug().
			Str("title", a.Title).
			Str("category", string(a.Category)).
			Msg("alert category disabled")
		return m.finish(ctx, a, alert.StatusFiltered)
	}

	if m.cfg.RateLimiting && !m.limiter.Allow(a.Category) {
		m.bump(&m.rateLimited)
		m.logger.Warn().
			Str("title", a.Title).
			Str("category", string(a.Category)).
			Msg("alert rate limited")
		return m.finish(ctx, a, alert.StatusRateLimited)
	}

	if m.channel == nil || !m.channel.Deliver(ctx, a) {
		m.bump(&m.failed)
		return m.finish(ctx, a, alert.StatusFailed)
	}

	// Record capacity only after a confirmed send.
	m.limiter.Record(a.Category)
	m.bump(&m.sent)
	return m.finish(ctx, a, alert.StatusSent)
}

func (m *Manager) finish(ctx context.Context, a *alert.Alert, status alert.Status) alert.Status {
	if m.recorder != nil {
		if err := m.recorder.Record(ctx, a, status); err != nil {
			m.logger.Error().Err(err).Str("title", a.Title).Msg("failed to record alert")
		}
	}
	return status
}

func (m *Manager) countIncoming(a *alert.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.bySeverity[a.Severity.String()]++
	m.byCategory[string(a.Category)]++
}

func (m *Manager) bump(counter *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter++
}

func (m *Manager) categoryEnabled(c alert.Category) bool {
	enabled, present := m.cfg.Categories[c]
	if !present {
		return true
	}
	return enabled
}

// SendTradingError dispatches a HIGH trading-errors alert.
func (m *Manager) SendTradingError(ctx context.Context, title, message string, metadata map[string]any) (alert.Status, error) {
	return m.Send(ctx, title, message, alert.SeverityHigh, alert.CategoryTradingErrors, "", metadata)
}

// SendSystemHealth dispatches a MEDIUM system-health alert.
func (m *Manager) SendSystemHealth(ctx context.Context, title, message string, metadata map[string]any) (alert.Status, error) {
	return m.Send(ctx, title, message, alert.SeverityMedium, alert.CategorySystemHealth, "", metadata)
}

// SendDataPipeline dispatches a MEDIUM data-pipeline alert.
func (m *Manager) SendDataPipeline(ctx context.Context, title, message string, metadata map[string]any) (alert.Status, error) {
	return m.Send(ctx, title, message, alert.SeverityMedium, alert.CategoryDataPipeline, "", metadata)
}

// SendSecurity dispatches a security alert. Severity is forced to CRITICAL
// regardless of what the caller might prefer; that is policy.
func (m *Manager) SendSecurity(ctx context.Context, title, message string, metadata map[string]any) (alert.Status, error) {
	return m.Send(ctx, title, message, alert.SeverityCritical, alert.CategorySecurity, "", metadata)
}

// SendCritical dispatches a CRITICAL general alert.
func (m *Manager) SendCritical(ctx context.Context, title, message string, metadata map[string]any) (alert.Status, error) {
	return m.Send(ctx, title, message, alert.SeverityCritical, alert.CategoryGeneral, "", metadata)
}

// Stats returns a snapshot of all counters plus limiter and channel status.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	s := Stats{
		Total:       m.total,
		Sent:        m.sent,
		Failed:      m.failed,
		RateLimited: m.rateLimited,
		Filtered:    m.filtered,
		BySeverity:  make(map[string]int64, len(m.bySeverity)),
		ByCategory:  make(map[string]int64, len(m.byCategory)),
	}
	for k, v := range m.bySeverity {
		s.BySeverity[k] = v
	}
	for k, v := range m.byCategory {
		s.ByCategory[k] = v
	}
	m.mu.Unlock()

	s.RateLimiter = m.limiter.Stats()
	if m.channel != nil {
		s.Channel = m.channel.Status()
	}
	return s
}

// Status returns the manager's configuration snapshot.
func (m *Manager) Status() map[string]any {
	categories := make(map[string]bool, len(alert.Categories()))
	for _, c := range alert.Categories() {
		categories[string(c)] = m.categoryEnabled(c)
	}

	channelAvailable := false
	if m.channel != nil {
		channelAvailable = m.channel.Available()
	}

	return map[string]any{
		"enabled":           m.cfg.Enabled,
		"min_severity":      m.cfg.MinSeverity.String(),
		"rate_limiting":     m.cfg.RateLimiting,
		"channel_available": channelAvailable,
		"categories":        categories,
	}
}

// ChannelAvailable reports whether the delivery channel could accept a send.
func (m *Manager) ChannelAvailable() bool {
	return m.channel != nil && m.channel.Available()
}

// SelfTest pushes a synthetic INFO system-health alert through the whole
// pipeline and reports whether it was actually sent. Note that a minimum
// severity above INFO filters the probe; that is the honest answer.
func (m *Manager) SelfTest(ctx context.Context) bool {
	status, err := m.Send(ctx,
		"Alert Pipeline Test",
		"Synthetic alert verifying the notification pipeline end to end.",
		alert.SeverityInfo,
		alert.CategorySystemHealth,
		"AlertManager",
		nil,
	)
	if err != nil {
		return false
	}
	return status == alert.StatusSent
}
