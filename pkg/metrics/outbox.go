package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxRelay counts relayed outbox rows by outcome. A nil *OutboxRelay is
// valid and records nothing.
type OutboxRelay struct {
	events *prometheus.CounterVec
	drain  prometheus.Histogram
}

func NewOutboxRelay(reg prometheus.Registerer) *OutboxRelay {
	if reg == nil {
		return nil
	}
	m := &OutboxRelay{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Outbox rows handled by the relay, by outcome and event type.",
		}, []string{"outcome", "event_type"}),
		drain: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "drain_duration_seconds",
			Help:      "Time spent relaying one batch.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.events, m.drain)
	return m
}

func (m *OutboxRelay) ObserveEvent(outcome, eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(outcome), normalizeLabel(eventType)).Inc()
}

func (m *OutboxRelay) ObserveDrain(d time.Duration) {
	if m == nil {
		return
	}
	m.drain.Observe(d.Seconds())
}
