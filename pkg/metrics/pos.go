package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// POSMetrics covers stock mutations, order transitions, completed sales and
// HTTP traffic. A nil *POSMetrics is a no-op.
type POSMetrics struct {
	stockOps    *prometheus.CounterVec
	stockUnits  *prometheus.CounterVec
	transitions *prometheus.CounterVec
	sales       prometheus.Counter
	salesAmount prometheus.Counter
	httpLatency *prometheus.HistogramVec
}

func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	m := &POSMetrics{
		stockOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_stock_operations_total",
			Help: "Stock ledger operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		stockUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_stock_units_total",
			Help: "Units moved by successful stock ledger operations.",
		}, []string{"op"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_order_transitions_total",
			Help: "Order status transitions by target status.",
		}, []string{"to"}),
		sales: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_sales_total",
			Help: "Completed counter sales.",
		}),
		salesAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_sales_amount_total",
			Help: "Sum of final totals of completed sales.",
		}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.stockOps, m.stockUnits, m.transitions, m.sales, m.salesAmount, m.httpLatency)
	return m
}

// ObserveStockOp records one ledger call moving units in total.
func (m *POSMetrics) ObserveStockOp(op string, units int, err error) {
	if m == nil || m.stockOps == nil {
		return
	}
	if err != nil {
		m.stockOps.WithLabelValues(normalizeLabel(op), OutcomeError).Inc()
		return
	}
	m.stockOps.WithLabelValues(normalizeLabel(op), OutcomeOK).Inc()
	m.stockUnits.WithLabelValues(normalizeLabel(op)).Add(float64(units))
}

func (m *POSMetrics) IncOrderTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// ObserveSale counts a completed sale and its final total.
func (m *POSMetrics) ObserveSale(finalTotal float64) {
	if m == nil || m.sales == nil {
		return
	}
	m.sales.Inc()
	if finalTotal > 0 {
		m.salesAmount.Add(finalTotal)
	}
}

func (m *POSMetrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.httpLatency == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(elapsed.Seconds())
}
