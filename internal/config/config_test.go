package config

import (
	"os"
	"path/filepath"
	"testing"

	"pipeline-alerts/internal/alert"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !cfg.Alerts.Enabled {
		t.Fatal("alerts should default to enabled")
	}
	if cfg.MinSeverity() != alert.SeverityMedium {
		t.Fatalf("default min severity: %s", cfg.MinSeverity())
	}
	if cfg.Alerts.RateLimiting.MaxPerHour != 10 || cfg.Alerts.RateLimiting.MaxPerDay != 50 {
		t.Fatalf("rate limit defaults: %+v", cfg.Alerts.RateLimiting)
	}
	if cfg.Email.Breaker.FailureThreshold != 3 {
		t.Fatalf("breaker threshold default: %d", cfg.Email.Breaker.FailureThreshold)
	}
	flags := cfg.CategoryFlags()
	for _, category := range alert.Categories() {
		if enabled, ok := flags[category]; !ok || !enabled {
			t.Fatalf("category %s should default to enabled: %v", category, flags)
		}
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("ALERT_SENDER_PASSWORD", "from-env")
	t.Setenv("ALERTPIPE_ALERTS_MIN_SEVERITY", "high")

	cfg, err := Load(writeConfig(t, `
alerts:
  min_severity: low
email:
  sender_password: from-file
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Email.Password != "from-env" {
		t.Fatalf("env should win over file, got %q", cfg.Email.Password)
	}
	if cfg.MinSeverity() != alert.SeverityHigh {
		t.Fatalf("min severity override: %s", cfg.MinSeverity())
	}
}

func TestValidateRejectsBadSeverity(t *testing.T) {
	if _, err := Load(writeConfig(t, "alerts:\n  min_severity: urgent\n")); err == nil {
		t.Fatal("invalid severity should fail validation")
	}
}

func TestValidateRejectsUnknownCategory(t *testing.T) {
	if _, err := Load(writeConfig(t, "alerts:\n  categories:\n    nonsense:\n      enabled: true\n")); err == nil {
		t.Fatal("unknown category should fail validation")
	}
}

func TestValidateRequiresServerWhenEnabled(t *testing.T) {
	if _, err := Load(writeConfig(t, "email:\n  enabled: true\n")); err == nil {
		t.Fatal("enabled email without a server should fail validation")
	}
}
