package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Webhook records inbound provider events.
type Webhook struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewWebhook registers the webhook collectors on reg. A nil reg yields a no-op value.
func NewWebhook(reg prometheus.Registerer) *Webhook {
	if reg == nil {
		return &Webhook{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ndavault",
		Name:      "webhook_events_total",
		Help:      "Inbound webhook events by kind and outcome.",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ndavault",
		Name:      "webhook_duration_seconds",
		Help:      "Webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
	reg.MustRegister(events, duration)
	return &Webhook{events: events, duration: duration}
}

// Observe records one processed event.
func (w *Webhook) Observe(kind, outcome string, took time.Duration) {
	if w == nil || w.events == nil {
		return
	}
	kind = label(kind)
	w.events.WithLabelValues(kind, label(outcome)).Inc()
	w.duration.WithLabelValues(kind).Observe(took.Seconds())
}
