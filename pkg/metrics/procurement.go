package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProcurementMetrics counts purchase order activity.
type ProcurementMetrics struct {
	transitions *prometheus.CounterVec
	lineChanges *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	payments    *prometheus.CounterVec
}

// NewProcurementMetrics registers the procurement metrics on the provided registerer.
func NewProcurementMetrics(reg prometheus.Registerer) *ProcurementMetrics {
	if reg == nil {
		return &ProcurementMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_order_transitions_total",
		Help: "Purchase order state transitions.",
	}, []string{"from", "to"})
	lineChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_order_line_changes_total",
		Help: "Order line mutations by kind.",
	}, []string{"change"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_rule_rejections_total",
		Help: "Operations rejected by a procurement business rule.",
	}, []string{"reason"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_order_payments_total",
		Help: "Payment records by resulting status.",
	}, []string{"status"})
	reg.MustRegister(transitions, lineChanges, rejections, payments)
	return &ProcurementMetrics{
		transitions: transitions,
		lineChanges: lineChanges,
		rejections:  rejections,
		payments:    payments,
	}
}

func (m *ProcurementMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *ProcurementMetrics) IncLineChange(change string) {
	if m == nil || m.lineChanges == nil {
		return
	}
	m.lineChanges.WithLabelValues(normalizeLabel(change)).Inc()
}

// IncRejection counts a business rule rejection keyed by its stable reason.
func (m *ProcurementMetrics) IncRejection(reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *ProcurementMetrics) IncPayment(status string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
