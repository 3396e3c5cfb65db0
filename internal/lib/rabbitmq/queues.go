package rabbitmq

const (
	// AccountsExchange обменник событий учетных записей.
	AccountsExchange = "accounts"
	// MailingListSignupKey ключ маршрутизации задач подписки на рассылку.
	MailingListSignupKey = "mailing_list.signup"
	// MailingListSignupQueue очередь задач подписки на рассылку.
	MailingListSignupQueue = "mailing_list.signup"

	prefetchCount = 10
)

// QueueConfig очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetEnrollmentQueues возвращает очереди, которые нужны процессу подписки на рассылку.
func GetEnrollmentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: MailingListSignupQueue, RoutingKey: MailingListSignupKey},
	}
}
