package ratelimit

import (
	"testing"
	"time"

	"pipeline-alerts/internal/alert"
)

// fixedClock lets tests move time forward deterministically.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time {
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestLimiter(maxHour, maxDay int) (*Limiter, *fixedClock) {
	clock := &fixedClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	l := New(maxHour, maxDay)
	l.now = clock.now
	return l, clock
}

func TestHourlyBoundary(t *testing.T) {
	l, _ := newTestLimiter(3, 50)

	for i := 0; i < 3; i++ {
		if !l.Allow(alert.CategoryGeneral) {
			t.Fatalf("send %d should be allowed", i+1)
		}
		l.Record(alert.CategoryGeneral)
	}
	if l.Allow(alert.CategoryGeneral) {
		t.Fatal("send beyond hourly limit should be denied")
	}
}

func TestWindowExpiry(t *testing.T) {
	l, clock := newTestLimiter(2, 50)

	l.Record(alert.CategoryDataPipeline)
	clock.advance(30 * time.Minute)
	l.Record(alert.CategoryDataPipeline)

	if l.Allow(alert.CategoryDataPipeline) {
		t.Fatal("hourly window full, should deny")
	}

	// The first entry falls out of the window, freeing one slot.
	clock.advance(31 * time.Minute)
	if !l.Allow(alert.CategoryDataPipeline) {
		t.Fatal("oldest entry expired, should allow again")
	}
}

func TestDailyLimitIndependentOfHourly(t *testing.T) {
	l, clock := newTestLimiter(10, 3)

	for i := 0; i < 3; i++ {
		l.Record(alert.CategoryTradingErrors)
		clock.advance(2 * time.Hour)
	}

	// Hourly window is empty by now, but the daily one is full.
	if l.Allow(alert.CategoryTradingErrors) {
		t.Fatal("daily limit reached, should deny")
	}

	clock.advance(20 * time.Hour)
	if !l.Allow(alert.CategoryTradingErrors) {
		t.Fatal("daily window rolled over, should allow")
	}
}

func TestCategoriesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 50)

	l.Record(alert.CategorySecurity)
	if l.Allow(alert.CategorySecurity) {
		t.Fatal("security category exhausted, should deny")
	}
	if !l.Allow(alert.CategoryGeneral) {
		t.Fatal("general category untouched, should allow")
	}
}

func TestStats(t *testing.T) {
	l, _ := newTestLimiter(5, 20)

	l.Record(alert.CategoryGeneral)
	l.Record(alert.CategoryGeneral)

	stats := l.Stats()
	got := stats[alert.CategoryGeneral]
	if got.SentLastHour != 2 || got.SentLastDay != 2 {
		t.Fatalf("unexpected counts: %#v", got)
	}
	if got.HourlyLimit != 5 || got.DailyLimit != 20 {
		t.Fatalf("unexpected limits: %#v", got)
	}
	if _, ok := stats[alert.CategorySecurity]; !ok {
		t.Fatal("stats should cover every known category")
	}
}

func TestDefaults(t *testing.T) {
	l := New(0, -1)
	if l.maxPerHour != DefaultMaxPerHour || l.maxPerDay != DefaultMaxPerDay {
		t.Fatalf("defaults not applied: %d/%d", l.maxPerHour, l.maxPerDay)
	}
}
