package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики транзакции оформления заказа.
type CheckoutMetrics struct {
	// Счётчики исходов
	ordersPlaced prometheus.Counter
	ordersFailed *prometheus.CounterVec

	// Гистограммы времени выполнения
	placeDuration prometheus.Histogram
	stepDuration  *prometheus.HistogramVec

	// Счётчик отправленных подтверждений
	notifications prometheus.Counter

	// Gauge для транзакций в полёте
	activeOrders prometheus.Gauge
}

// NewCheckoutMetrics создаёт новый экземпляр метрик оформления.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_placed_total",
			Help: "Total number of orders committed successfully",
		}),
		ordersFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_orders_failed_total",
			Help: "Total number of failed order attempts grouped by error kind",
		}, []string{"kind"}),
		placeDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "checkout_place_order_duration_seconds",
			Help:    "Duration of the whole place-order transaction in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "checkout_step_duration_seconds",
			Help:    "Duration of individual place-order steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		notifications: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_notifications_dispatched_total",
			Help: "Total number of order confirmations handed to the dispatcher",
		}),
		activeOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "checkout_active_orders",
			Help: "Number of place-order transactions currently in flight",
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

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
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

// RecordOrderPlaced увеличивает счётчик успешных заказов.
func (m *CheckoutMetrics) RecordOrderPlaced() {
	m.ordersPlaced.Inc()
}

// RecordOrderFailed увеличивает счётчик неудач с меткой вида ошибки.
func (m *CheckoutMetrics) RecordOrderFailed(kind string) {
	m.ordersFailed.WithLabelValues(kind).Inc()
}

// RecordPlaceDuration записывает длительность всей транзакции.
func (m *CheckoutMetrics) RecordPlaceDuration(duration time.Duration) {
	m.placeDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает длительность отдельного шага.
func (m *CheckoutMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordNotificationDispatched увеличивает счётчик подтверждений.
func (m *CheckoutMetrics) RecordNotificationDispatched() {
	m.notifications.Inc()
}

// RecordOrderInFlightStarted увеличивает количество активных транзакций.
func (m *CheckoutMetrics) RecordOrderInFlightStarted() {
	m.activeOrders.Inc()
}

// RecordOrderInFlightFinished уменьшает количество активных транзакций.
func (m *CheckoutMetrics) RecordOrderInFlightFinished() {
	m.activeOrders.Dec()
}
