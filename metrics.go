package nailgen

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Attempt outcome labels
const (
	outcomeSuccess     = "success"
	outcomeFailure     = "failure"
	outcomeRateLimited = "rate_limited"
)

// Metrics holds the cascade's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	outcomes        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nailgen_adapter_attempts_total",
				Help: "Adapter attempts by adapter and outcome",
			},
			[]string{"adapter", "outcome"},
		),
		attemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nailgen_adapter_attempt_duration_seconds",
				Help:    "Duration of adapter attempts",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"adapter"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nailgen_cascade_outcomes_total",
				Help: "Completed cascades by provider used and degradation",
			},
			[]string{"provider", "degraded"},
		),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.attemptDuration, m.outcomes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeAttempt(adapter, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(adapter, outcome).Inc()
	if outcome != outcomeRateLimited {
		m.attemptDuration.WithLabelValues(adapter).Observe(d.Seconds())
	}
}

func (m *Metrics) observeOutcome(o *CascadeOutcome) {
	if m == nil {
		return
	}
	degraded := "false"
	if o.Degraded {
		degraded = "true"
	}
	m.outcomes.WithLabelValues(o.ProviderUsed, degraded).Inc()
}
