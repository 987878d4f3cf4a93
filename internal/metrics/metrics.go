// Package metrics собирает счётчики Prometheus по воронке заказов
// и уведомлениям.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics содержит метрики витрины.
type Metrics struct {
	OrdersCreated   prometheus.Counter
	OrdersSubmitted prometheus.Counter
	OrderDecisions  *prometheus.CounterVec

	ProvisionFailures prometheus.Counter

	NotificationsPublished *prometheus.CounterVec
	NotificationErrors     prometheus.Counter
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default возвращает единственный на процесс экземпляр метрик.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// New регистрирует метрики в регистре по умолчанию.
func New() *Metrics {
	return &Metrics{
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders created",
		}),
		OrdersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_submitted_total",
			Help: "Total number of orders submitted with a receipt",
		}),
		OrderDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_order_decisions_total",
				Help: "Total number of operator decisions",
			},
			[]string{"decision"},
		),
		ProvisionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_provision_failures_total",
			Help: "Total number of failed VPN panel provisioning attempts",
		}),
		NotificationsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_notifications_published_total",
				Help: "Total number of notifications published to the broker",
			},
			[]string{"kind"},
		),
		NotificationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "storefront_notification_errors_total",
			Help: "Total number of failed notification deliveries",
		}),
	}
}

// RecordDecision учитывает решение оператора: approved или rejected.
func (m *Metrics) RecordDecision(decision string) {
	m.OrderDecisions.WithLabelValues(decision).Inc()
}

// RecordNotification учитывает публикацию уведомления по ключу маршрутизации.
func (m *Metrics) RecordNotification(kind string) {
	m.NotificationsPublished.WithLabelValues(kind).Inc()
}
