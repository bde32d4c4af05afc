package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// POSMetrics содержит метрики каталога и оформления заказов.
type POSMetrics struct {
	// Счётчики операций
	ordersPlaced prometheus.Counter
	ordersFailed prometheus.Counter

	// Мутации каталога по типу операции
	catalogMutations *prometheus.CounterVec

	// Гистограммы
	orderValue    prometheus.Histogram
	orderItems    prometheus.Histogram
	orderDuration prometheus.Histogram
	httpDuration  *prometheus.HistogramVec

	// Счётчики событий
	auditEvents  prometheus.Counter
	outboxEvents prometheus.Counter
}

// NewPOSMetrics создаёт новый экземпляр метрик сервиса.
func NewPOSMetrics() *POSMetrics {
	return newPOSMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPOSMetricsWithRegisterer(registerer prometheus.Registerer) *POSMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &POSMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_orders_failed_total",
			Help: "Total number of order placements rejected or failed",
		}),
		catalogMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_catalog_mutations_total",
			Help: "Total number of catalog mutations grouped by operation",
		}, []string{"operation"}),
		orderValue: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_order_value",
			Help:    "Distribution of placed order totals",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		orderItems: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_order_items",
			Help:    "Distribution of line counts per placed order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		orderDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "pos_order_place_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		httpDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route", "status"}),
		auditEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_audit_events_total",
			Help: "Total number of catalog audit events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pos_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced фиксирует успешно оформленный заказ.
func (m *POSMetrics) RecordOrderPlaced(total decimal.Decimal, itemCount int) {
	m.ordersPlaced.Inc()
	value, _ := total.Float64()
	m.orderValue.Observe(value)
	m.orderItems.Observe(float64(itemCount))
}

// RecordOrderFailed увеличивает счётчик неудачных оформлений.
func (m *POSMetrics) RecordOrderFailed() {
	m.ordersFailed.Inc()
}

// RecordOrderDuration записывает время оформления заказа.
func (m *POSMetrics) RecordOrderDuration(duration time.Duration) {
	m.orderDuration.Observe(duration.Seconds())
}

// RecordCatalogMutation увеличивает счётчик мутаций каталога.
func (m *POSMetrics) RecordCatalogMutation(operation string) {
	m.catalogMutations.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest записывает время обработки HTTP-запроса.
func (m *POSMetrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.httpDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordAuditEvent увеличивает счётчик audit-событий каталога.
func (m *POSMetrics) RecordAuditEvent() {
	m.auditEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *POSMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
