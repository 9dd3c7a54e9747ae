package products

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts product workflow outcomes.
type Metrics struct {
	created       prometheus.Counter
	failures      *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

// Failure stages of the create workflow.
const (
	stageValidation = "validation"
	stageStore      = "store"
	stageTx         = "transaction"
	stageRead       = "read"
)

// NewMetrics registers the product collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_products_created_total",
			Help: "Products committed by the create workflow.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_product_create_failures_total",
			Help: "Failed product create requests by workflow stage.",
		}, []string{"stage"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_product_compensation_removals_total",
			Help: "Stored image files removed after a failed create, by result.",
		}, []string{"result"}),
	}
	registerer.MustRegister(m.created, m.failures, m.compensations)
	return m
}

func (m *Metrics) incCreated() {
	if m != nil {
		m.created.Inc()
	}
}

func (m *Metrics) incFailure(stage string) {
	if m != nil {
		m.failures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) incCompensation(ok bool) {
	if m == nil {
		return
	}
	result := "removed"
	if !ok {
		result = "failed"
	}
	m.compensations.WithLabelValues(result).Inc()
}
