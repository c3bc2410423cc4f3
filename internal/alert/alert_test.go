package alert

import (
	"strings"
	"testing"
)

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if !(ordered[i] > ordered[i-1]) {
			t.Fatalf("%s should rank above %s", ordered[i], ordered[i-1])
		}
	}
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity(" Medium ")
	if err != nil {
		t.Fatalf("parse severity: %v", err)
	}
	if sev != SeverityMedium {
		t.Fatalf("expected MEDIUM, got %s", sev)
	}
	if _, err := ParseSeverity("urgent"); err == nil {
		t.Fatal("unknown severity should fail")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "body", SeverityHigh, CategoryGeneral); err == nil {
		t.Fatal("empty title should fail construction")
	}
	if _, err := New("title", "  ", SeverityHigh, CategoryGeneral); err == nil {
		t.Fatal("empty message should fail construction")
	}
	if _, err := New("title", "body", SeverityHigh, Category("bogus")); err == nil {
		t.Fatal("unknown category should fail construction")
	}

	a, err := New("title", "body", SeverityHigh, "")
	if err != nil {
		t.Fatalf("construction should succeed: %v", err)
	}
	if a.Category != CategoryGeneral {
		t.Fatalf("empty category should default to general, got %s", a.Category)
	}
	if a.Metadata == nil || len(a.Metadata) != 0 {
		t.Fatalf("metadata should default to an empty map, got %#v", a.Metadata)
	}
	if a.Timestamp.IsZero() {
		t.Fatal("timestamp should be set at construction")
	}
	if loc := a.Timestamp.Location(); loc.String() != "UTC" {
		t.Fatalf("timestamp should be UTC, got %s", loc)
	}
}

func TestSubject(t *testing.T) {
	a, _ := New("disk almost full", "details", SeverityCritical, CategorySystemHealth)
	if got := a.Subject(); got != "[CRITICAL] Alert: disk almost full" {
		t.Fatalf("unexpected subject: %q", got)
	}
}

func TestBodyLayout(t *testing.T) {
	a, _ := New("disk almost full", "root volume above 95%", SeverityHigh, CategorySystemHealth)
	a = a.WithComponent("node-1").WithMetadata(map[string]any{
		"zeta":  "last",
		"alpha": 1,
	})

	body := a.Body()
	for _, want := range []string{
		"Title: disk almost full\n",
		"Severity: HIGH\n",
		"Category: system_health\n",
		"Component: node-1\n",
		"\nMessage:\nroot volume above 95%\n",
		"\nAdditional Information:\n",
		"  alpha: 1\n",
		"  zeta: last\n",
		"\n--\nGenerated at ",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	// Metadata must render in sorted key order.
	if strings.Index(body, "alpha") > strings.Index(body, "zeta") {
		t.Fatalf("metadata keys not sorted:\n%s", body)
	}
}

func TestBodyWithoutOptionalSections(t *testing.T) {
	a, _ := New("t", "m", SeverityLow, CategoryGeneral)
	body := a.Body()
	if strings.Contains(body, "Component:") {
		t.Fatalf("component section should be absent:\n%s", body)
	}
	if strings.Contains(body, "Additional Information:") {
		t.Fatalf("metadata section should be absent:\n%s", body)
	}
}

func TestWithMetadataDoesNotMutateOriginal(t *testing.T) {
	a, _ := New("t", "m", SeverityLow, CategoryGeneral)
	b := a.WithMetadata(map[string]any{"k": "v"})
	if len(a.Metadata) != 0 {
		t.Fatalf("original metadata mutated: %#v", a.Metadata)
	}
	if b.Metadata["k"] != "v" {
		t.Fatalf("copy missing metadata: %#v", b.Metadata)
	}
}
