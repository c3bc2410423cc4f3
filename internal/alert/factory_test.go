package alert

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewOrderFailure(t *testing.T) {
	a := NewOrderFailure("ETH-USD", "buy", decimal.NewFromInt(2), decimal.NewFromFloat(1850.25), "insufficient balance")
	if a.Severity != SeverityHigh || a.Category != CategoryTradingErrors {
		t.Fatalf("unexpected pairing: %s/%s", a.Severity, a.Category)
	}
	if a.Metadata["price"] != "1850.25" {
		t.Fatalf("price metadata: %#v", a.Metadata)
	}
}

func TestNewSecurityIsAlwaysCritical(t *testing.T) {
	a := NewSecurity("login brute force", "20 failed attempts from one address")
	if a.Severity != SeverityCritical {
		t.Fatalf("security alerts must be CRITICAL, got %s", a.Severity)
	}
	if a.Category != CategorySecurity {
		t.Fatalf("security alerts must use the security category, got %s", a.Category)
	}
}

func TestNewDatabaseConnection(t *testing.T) {
	a := NewDatabaseConnection("market_data", errors.New("connection refused"))
	if a.Severity != SeverityCritical || a.Category != CategorySystemHealth {
		t.Fatalf("unexpected pairing: %s/%s", a.Severity, a.Category)
	}
	if a.Metadata["error"] != "connection refused" {
		t.Fatalf("error metadata: %#v", a.Metadata)
	}
}

func TestNewAPIError(t *testing.T) {
	a := NewAPIError("alpaca", "/v2/orders", 503, errors.New("upstream unavailable"))
	if a.Category != CategoryDataPipeline {
		t.Fatalf("unexpected category %s", a.Category)
	}
	if a.Metadata["status_code"] != 503 {
		t.Fatalf("status metadata: %#v", a.Metadata)
	}
}

func TestNewPerformanceThreshold(t *testing.T) {
	a := NewPerformanceThreshold("flow_runtime_seconds", decimal.NewFromInt(95), decimal.NewFromInt(60))
	if a.Severity != SeverityMedium || a.Category != CategorySystemHealth {
		t.Fatalf("unexpected pairing: %s/%s", a.Severity, a.Category)
	}
}

func TestNewDataFreshness(t *testing.T) {
	last := time.Now().Add(-2 * time.Hour)
	a := NewDataFreshness("daily_bars", last, time.Hour)
	if a.Category != CategoryDataPipeline || a.Severity != SeverityHigh {
		t.Fatalf("unexpected pairing: %s/%s", a.Severity, a.Category)
	}
	if a.Metadata["dataset"] != "daily_bars" {
		t.Fatalf("dataset metadata: %#v", a.Metadata)
	}
}

func TestNewCircuitBreakerOpened(t *testing.T) {
	a := NewCircuitBreakerOpened("email", 3)
	if a.Metadata["failures"] != 3 {
		t.Fatalf("failures metadata: %#v", a.Metadata)
	}
}

func TestLifecycleAlertsCarryComponent(t *testing.T) {
	up := NewSystemStartup("alertpipe", "1.2.3")
	if up.Component != "alertpipe" || up.Severity != SeverityInfo {
		t.Fatalf("unexpected startup alert: %#v", up)
	}
	down := NewSystemShutdown("alertpipe", "SIGTERM")
	if down.Metadata["reason"] != "SIGTERM" {
		t.Fatalf("shutdown metadata: %#v", down.Metadata)
	}
}
