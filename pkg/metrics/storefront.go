package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRollback = "rollback"
)

// StorefrontMetrics records cart mutation and checkout outcomes. A nil
// receiver is a no-op so callers can wire metrics optionally.
type StorefrontMetrics struct {
	cartMutations *prometheus.CounterVec
	checkouts     *prometheus.CounterVec
	migrations    *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutation attempts by operation and outcome.",
	}, []string{"op", "outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	migrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_migrations_total",
		Help: "Guest-to-authenticated cart migrations by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(cartMutations, checkouts, migrations)
	return &StorefrontMetrics{
		cartMutations: cartMutations,
		checkouts:     checkouts,
		migrations:    migrations,
	}
}

// IncCartMutation records one cart mutation attempt.
func (m *StorefrontMetrics) IncCartMutation(op, outcome string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncCheckout records one checkout submission.
func (m *StorefrontMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncMigration records one guest cart migration attempt.
func (m *StorefrontMetrics) IncMigration(outcome string) {
	if m == nil || m.migrations == nil {
		return
	}
	m.migrations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
