package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestHTTPMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.IncInFlight()
	m.ObserveRequest("GET", "/v1/products", "200", 120*time.Millisecond)
	m.DecInFlight()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{
		"method": "GET",
		"route":  "/v1/products",
		"status": "200",
	})
	if err != nil {
		t.Fatalf("fetch requests counter: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected requests=1, got %f", got)
	}

	if !hasMetricFamily(mfs, "http_request_duration_seconds") {
		t.Fatalf("expected duration histogram to be registered")
	}
}

func TestCheckoutMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncInitiated("ok")
	m.IncVerified("signature_mismatch")
	m.IncVerified("signature_mismatch")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	got, err := fetchCounterValue(mfs, "checkout_verified_total", map[string]string{"outcome": "signature_mismatch"})
	if err != nil {
		t.Fatalf("fetch verified counter: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected verified=2, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewHTTPMetrics(nil)
	m.IncInFlight()
	m.ObserveRequest("GET", "/", "200", time.Millisecond)
	m.DecInFlight()

	c := NewCheckoutMetrics(nil)
	c.IncInitiated("ok")
	c.IncVerified("ok")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			seen := make(map[string]string)
			for _, lp := range m.GetLabel() {
				seen[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if seen[k] != v {
					continue metric
				}
			}
			return m.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %s with labels %v not found", name, labels)
}

func hasMetricFamily(mfs []*dto.MetricFamily, name string) bool {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return true
		}
	}
	return false
}
