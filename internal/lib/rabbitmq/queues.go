package rabbitmq

// Exchange общий direct-exchange для всех уведомлений портала.
const Exchange = "notifications"

// Ключи маршрутизации.
const (
	RoutingKeyUpcoming  = "upcoming"
	RoutingKeyLifecycle = "lifecycle"
)

// Имена очередей.
const (
	QueueUpcoming  = "notifications.upcoming"
	QueueLifecycle = "notifications.lifecycle"
)

// QueueConfig описывает очередь и ключ, которым она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues возвращает очереди, которые читает sender.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueUpcoming, RoutingKey: RoutingKeyUpcoming},
		{QueueName: QueueLifecycle, RoutingKey: RoutingKeyLifecycle},
	}
}
