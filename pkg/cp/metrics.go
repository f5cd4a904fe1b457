package cp

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports propagation counters to Prometheus. A nil *Metrics
// records nothing.
type Metrics struct {
	propagations   *prometheus.CounterVec
	events         *prometheus.CounterVec
	contradictions prometheus.Counter
	fixpoints      prometheus.Counter
	passivations   prometheus.Counter
	duration       prometheus.Histogram
}

// NewMetrics creates the collectors under namespace and registers them.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		propagations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagations_total",
			Help:      "Number of propagator executions by kind (full, custom, fine).",
		}, []string{"kind"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Number of domain events by primary event type.",
		}, []string{"event"}),
		contradictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contradictions_total",
			Help:      "Number of propagation passes ended by a contradiction.",
		}),
		fixpoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixpoints_total",
			Help:      "Number of propagation passes that reached a fixpoint.",
		}),
		passivations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passivations_total",
			Help:      "Number of propagators found entailed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "propagation_duration_seconds",
			Help:      "Duration of single propagator executions.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
	if reg == nil {
		return m, nil
	}
	errs := []error{
		reg.Register(m.propagations),
		reg.Register(m.events),
		reg.Register(m.contradictions),
		reg.Register(m.fixpoints),
		reg.Register(m.passivations),
		reg.Register(m.duration),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) propagation(full, fine bool, d time.Duration) {
	if m == nil {
		return
	}
	kind := "custom"
	switch {
	case fine:
		kind = "fine"
	case full:
		kind = "full"
	}
	m.propagations.WithLabelValues(kind).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) event(mask EventType) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(mask.Primary()).Inc()
}

func (m *Metrics) contradiction() {
	if m != nil {
		m.contradictions.Inc()
	}
}

func (m *Metrics) fixpoint() {
	if m != nil {
		m.fixpoints.Inc()
	}
}

func (m *Metrics) passivation() {
	if m != nil {
		m.passivations.Inc()
	}
}
