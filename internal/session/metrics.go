package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session probes and guard decisions. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	probes        *prometheus.CounterVec
	probeDuration prometheus.Histogram
	decisions     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "session",
			Name:      "probes_total",
			Help:      "Session probes by outcome.",
		}, []string{"outcome"}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "session",
			Name:      "probe_duration_seconds",
			Help:      "Latency of session probes.",
			Buckets:   prometheus.DefBuckets,
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Route guard decisions by requirement and outcome.",
		}, []string{"requirement", "decision"}),
	}

	for _, c := range []prometheus.Collector{m.probes, m.probeDuration, m.decisions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

const (
	probeAuthenticated = "authenticated"
	probeAnonymous     = "anonymous"
	probeFailed        = "failed"
)

func (m *Metrics) observeProbe(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(outcome).Inc()
	m.probeDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeDecision(req Requirement, d Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(req.String(), d.String()).Inc()
}
