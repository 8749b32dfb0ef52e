// Package metrics объявляет Prometheus-метрики портала.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal считает HTTP-запросы по методу, шаблону маршрута и статусу.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration длительность обработки HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SubscriptionOperations считает операции жизненного цикла подписки и их исход.
	SubscriptionOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "subscription",
		Name:      "operations_total",
		Help:      "Subscription lifecycle operations by operation and result.",
	}, []string{"operation", "result"})

	// SweepTransitions считает переходы, сделанные фоновым обходом.
	SweepTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "scheduler",
		Name:      "sweep_transitions_total",
		Help:      "Subscriptions expired or promoted by the periodic sweep.",
	}, []string{"transition"})
)

// Результаты операций.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ObserveOperation увеличивает счетчик операции с результатом ok или error.
func ObserveOperation(operation string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	SubscriptionOperations.WithLabelValues(operation, result).Inc()
}
