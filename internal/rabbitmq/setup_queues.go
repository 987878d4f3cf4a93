package rabbitmq

// NotificationsExchange — общий обменник уведомлений витрины.
const NotificationsExchange = "notifications"

// Ключи маршрутизации уведомлений.
const (
	RoutingKeyOperatorOrder   = "operator.order"
	RoutingKeyUserCredentials = "user.credentials"
	RoutingKeyUserRejected    = "user.rejected"
	RoutingKeyUserExpiring    = "user.expiring"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.operator.order", RoutingKey: RoutingKeyOperatorOrder},
		{QueueName: "notifications.user.credentials", RoutingKey: RoutingKeyUserCredentials},
		{QueueName: "notifications.user.rejected", RoutingKey: RoutingKeyUserRejected},
		{QueueName: "notifications.user.expiring", RoutingKey: RoutingKeyUserExpiring},
	}
}
