package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IncEdit("taxPercentage", "tax_from_percentage")
	m.IncEdit("taxPercentage", "tax_from_percentage")
	m.IncPreview("enhanced", "success")
	m.ObserveUpstream("get_order", 200, 250*time.Millisecond)
	m.ObserveUpstream("fbr_preview", 0, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orderdesk_line_item_edits_total", "rule", "tax_from_percentage"); err != nil {
		t.Fatalf("fetch edits: %v", err)
	} else if got != 2 {
		t.Fatalf("expected edits=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "orderdesk_fbr_previews_total", "source", "enhanced"); err != nil {
		t.Fatalf("fetch previews: %v", err)
	} else if got != 1 {
		t.Fatalf("expected previews=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "orderdesk_upstream_request_duration_seconds", "status", "200"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if _, err := fetchHistogramSum(mfs, "orderdesk_upstream_request_duration_seconds", "status", "error"); err != nil {
		t.Fatalf("fetch failed call duration: %v", err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.IncEdit("quantity", "quantity")
	m.IncPreview("local", "success")
	m.ObserveUpstream("get_order", 500, time.Second)

	New(nil).IncEdit("quantity", "quantity")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
