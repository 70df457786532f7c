package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records the business counters for checkout and enrichment.
type CommerceMetrics struct {
	checkouts          *prometheus.CounterVec
	paymentVerify      *prometheus.CounterVec
	enrichmentMatches  *prometheus.CounterVec
	enrichmentDuration *prometheus.HistogramVec
}

// NewCommerceMetrics registers the commerce metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions grouped by outcome.",
	}, []string{"outcome"})
	paymentVerify := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment signature verifications grouped by result.",
	}, []string{"result"})
	enrichmentMatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrichment_matches_total",
		Help: "Bundle candidate resolutions grouped by match strategy.",
	}, []string{"strategy"})
	enrichmentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "enrichment_duration_seconds",
		Help:    "Duration of bundle enrichment in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	reg.MustRegister(checkouts, paymentVerify, enrichmentMatches, enrichmentDuration)
	return &CommerceMetrics{
		checkouts:          checkouts,
		paymentVerify:      paymentVerify,
		enrichmentMatches:  enrichmentMatches,
		enrichmentDuration: enrichmentDuration,
	}
}

// IncCheckout increments the checkout counter for the given outcome.
func (m *CommerceMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPaymentVerification increments the verification counter for the result.
func (m *CommerceMetrics) IncPaymentVerification(result string) {
	if m == nil || m.paymentVerify == nil {
		return
	}
	m.paymentVerify.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncEnrichmentMatch increments the counter for the winning match strategy.
func (m *CommerceMetrics) IncEnrichmentMatch(strategy string) {
	if m == nil || m.enrichmentMatches == nil {
		return
	}
	m.enrichmentMatches.WithLabelValues(normalizeLabel(strategy)).Inc()
}

// ObserveEnrichmentDuration records how long an enrichment pass took.
func (m *CommerceMetrics) ObserveEnrichmentDuration(source string, duration time.Duration) {
	if m == nil || m.enrichmentDuration == nil {
		return
	}
	m.enrichmentDuration.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
