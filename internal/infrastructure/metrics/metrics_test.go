package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRegistersMetrics(t *testing.T) {
	m := New()

	if m.APIRequests == nil || m.BreakerState == nil || m.CacheLookups == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.APIRequests.WithLabelValues("api", "list_expenses", "200").Inc()

	metricFamilies, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	a := New()
	b := New()

	a.Submissions.WithLabelValues("expense", "created").Inc()

	families, err := b.Registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "splitledger_submissions_total" {
			t.Fatalf("expected registries to be independent, found %v", mf)
		}
	}
}

func TestWriteText(t *testing.T) {
	m := New()
	m.APIRequests.WithLabelValues("auth", "login", "200").Add(2)

	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `splitledger_api_requests_total{operation="login",service="auth",status="200"} 2`) {
		t.Fatalf("expected counter in text output, got:\n%s", out)
	}
}
