// Package ratelimit bounds alert volume per category with rolling
// hourly and daily windows, protecting recipients from notification storms.
package ratelimit

import (
	"sync"
	"time"

	"pipeline-alerts/internal/alert"
)

const (
	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour

	// DefaultMaxPerHour and DefaultMaxPerDay apply when a limit is not
	// configured. A single pair of limits applies uniformly across
	// categories; state is still tracked per category.
	DefaultMaxPerHour = 10
	DefaultMaxPerDay  = 50
)

// CategoryStats summarises one category's recent send volume.
type CategoryStats struct {
	SentLastHour int `json:"sent_last_hour"`
	SentLastDay  int `json:"sent_last_day"`
	HourlyLimit  int `json:"hourly_limit"`
	DailyLimit   int `json:"daily_limit"`
}

// Limiter keeps per-category sliding windows of send timestamps.
// Expired entries are pruned lazily on each check.
type Limiter struct {
	mu         sync.Mutex
	hourly     map[alert.Category][]time.Time
	daily      map[alert.Category][]time.Time
	maxPerHour int
	maxPerDay  int

	now func() time.Time
}

// New constructs a Limiter. Non-positive limits fall back to the defaults.
func New(maxPerHour, maxPerDay int) *Limiter {
	if maxPerHour <= 0 {
		maxPerHour = DefaultMaxPerHour
	}
	if maxPerDay <= 0 {
		maxPerDay = DefaultMaxPerDay
	}
	return &Limiter{
		hourly:     make(map[alert.Category][]time.Time),
		daily:      make(map[alert.Category][]time.Time),
		maxPerHour: maxPerHour,
		maxPerDay:  maxPerDay,
		now:        time.Now,
	}
}

// Allow reports whether another alert of the category may be sent now.
// At exactly the limit the next send is denied.
func (l *Limiter) Allow(category alert.Category) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.hourly[category] = prune(l.hourly[category], now.Add(-hourWindow))
	l.daily[category] = prune(l.daily[category], now.Add(-dayWindow))

	return len(l.hourly[category]) < l.maxPerHour && len(l.daily[category]) < l.maxPerDay
}

// Record registers a successful send. Call it only after delivery is
// confirmed; recording earlier would under-count remaining capacity.
func (l *Limiter) Record(category alert.Category) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.hourly[category] = append(l.hourly[category], now)
	l.daily[category] = append(l.daily[category], now)
}

// Stats returns current window occupancy for every known category.
func (l *Limiter) Stats() map[alert.Category]CategoryStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make(map[alert.Category]CategoryStats, len(alert.Categories()))
	for _, category := range alert.Categories() {
		l.hourly[category] = prune(l.hourly[category], now.Add(-hourWindow))
		l.daily[category] = prune(l.daily[category], now.Add(-dayWindow))
		out[category] = CategoryStats{
			SentLastHour: len(l.hourly[category]),
			SentLastDay:  len(l.daily[category]),
			HourlyLimit:  l.maxPerHour,
			DailyLimit:   l.maxPerDay,
		}
	}
	return out
}

// prune drops timestamps at or before the cutoff. Windows are appended in
// time order, so the first retained index can be found with a single scan.
func prune(window []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(window) && !window[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return window
	}
	return append(window[:0:0], window[idx:]...)
}
