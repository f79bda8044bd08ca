package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records order editing, preview and upstream call activity.
type Metrics struct {
	edits    *prometheus.CounterVec
	previews *prometheus.CounterVec
	upstream *prometheus.HistogramVec
}

// New registers the orderdesk metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	edits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_line_item_edits_total",
		Help: "Line item edits resolved, by edited field and the rule that fired.",
	}, []string{"field", "rule"})
	previews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_fbr_previews_total",
		Help: "FBR invoice previews generated, by source and outcome.",
	}, []string{"source", "outcome"})
	upstream := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderdesk_upstream_request_duration_seconds",
		Help:    "Duration of upstream API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})
	reg.MustRegister(edits, previews, upstream)
	return &Metrics{
		edits:    edits,
		previews: previews,
		upstream: upstream,
	}
}

// IncEdit counts a resolved line item edit.
func (m *Metrics) IncEdit(field, rule string) {
	if m == nil || m.edits == nil {
		return
	}
	m.edits.WithLabelValues(normalizeLabel(field), normalizeLabel(rule)).Inc()
}

// IncPreview counts a generated preview.
func (m *Metrics) IncPreview(source, outcome string) {
	if m == nil || m.previews == nil {
		return
	}
	m.previews.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// ObserveUpstream records the duration of an upstream call. A status of 0 means
// the request never got a response.
func (m *Metrics) ObserveUpstream(endpoint string, status int, duration time.Duration) {
	if m == nil || m.upstream == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstream.WithLabelValues(normalizeLabel(endpoint), label).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
