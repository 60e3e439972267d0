package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks payment initiation and verification outcomes.
type CheckoutMetrics struct {
	initiated *prometheus.CounterVec
	verified  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	initiated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_initiated_total",
		Help: "Payment attempts initiated with the gateway.",
	}, []string{"outcome"})
	verified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_verified_total",
		Help: "Payment verification attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(initiated, verified)
	return &CheckoutMetrics{
		initiated: initiated,
		verified:  verified,
	}
}

// IncInitiated counts one initiation with the given outcome label.
func (c *CheckoutMetrics) IncInitiated(outcome string) {
	if c == nil || c.initiated == nil {
		return
	}
	c.initiated.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncVerified counts one verification with the given outcome label.
func (c *CheckoutMetrics) IncVerified(outcome string) {
	if c == nil || c.verified == nil {
		return
	}
	c.verified.WithLabelValues(normalizeLabel(outcome)).Inc()
}
