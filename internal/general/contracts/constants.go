package contracts

// DeadLetterSuffix is appended to a queue name to form its dead-letter queue.
const DeadLetterSuffix = ".dlq"

// Routing used when notifications go through a topic exchange.
const (
	RouteNotificationPattern = "notification.#"
	RouteNotificationMatch   = "notification.match"
)

// ContentTypeJSON is set on every published body.
const ContentTypeJSON = "application/json"
