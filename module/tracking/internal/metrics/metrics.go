package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the subsystem's counters. A single instance is built at
// startup and injected; nothing registers on the global registry from here.
type Metrics struct {
	SamplesAccepted prometheus.Counter
	SamplesRejected prometheus.Counter
	Violations      *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SamplesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_samples_accepted_total",
			Help: "Location samples accepted by the ingestion gateway.",
		}),
		SamplesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_samples_rejected_total",
			Help: "Location samples rejected by validation or vehicle lookup.",
		}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_violations_total",
			Help: "Detected policy violations by kind.",
		}, []string{"kind"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_events_published_total",
			Help: "Events handed to the fan-out publisher by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.SamplesAccepted, m.SamplesRejected, m.Violations, m.EventsPublished)
	return m
}

// NewNop returns metrics bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
