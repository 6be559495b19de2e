package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records payout and webhook ingestion outcomes.
type SettlementMetrics struct {
	payoutOutcomes *prometheus.CounterVec
	payoutDuration *prometheus.HistogramVec
	webhookEvents  *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_outcomes_total",
		Help: "Payout attempts by provider and terminal outcome.",
	}, []string{"provider", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payout_provider_call_seconds",
		Help:    "Duration of external provider disbursement calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_webhook_events_total",
		Help: "Inbound gateway webhook events by type and result.",
	}, []string{"event_type", "result"})
	reg.MustRegister(outcomes, duration, webhooks)
	return &SettlementMetrics{
		payoutOutcomes: outcomes,
		payoutDuration: duration,
		webhookEvents:  webhooks,
	}
}

// ObservePayoutOutcome increments the terminal outcome counter for a provider.
func (m *SettlementMetrics) ObservePayoutOutcome(provider, outcome string) {
	if m == nil || m.payoutOutcomes == nil {
		return
	}
	m.payoutOutcomes.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// ObserveProviderCall records how long an external disbursement call took.
func (m *SettlementMetrics) ObserveProviderCall(provider string, duration time.Duration) {
	if m == nil || m.payoutDuration == nil {
		return
	}
	m.payoutDuration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// ObserveWebhookEvent counts an ingested, skipped or duplicate webhook event.
func (m *SettlementMetrics) ObserveWebhookEvent(eventType, result string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
