package rabbitmq

import (
	"fmt"

	"rides-matcher/internal/general/config"
	"rides-matcher/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology names the queues and the optional exchange the matcher relies on.
type Topology struct {
	RequestQueue          string
	NotificationsQueue    string
	NotificationsExchange string // empty means the default exchange
}

// TopologyFromConfig reads the queue section of cfg.
func TopologyFromConfig(cfg *config.Config) Topology {
	return Topology{
		RequestQueue:          cfg.Queues.Request,
		NotificationsQueue:    cfg.Queues.Notifications,
		NotificationsExchange: cfg.Queues.NotificationsExchange,
	}
}

// NotificationRoute returns the exchange and routing key used to publish outcomes.
func (t Topology) NotificationRoute() (exchange, routingKey string) {
	if t.NotificationsExchange == "" {
		return "", t.NotificationsQueue
	}
	return t.NotificationsExchange, contracts.RouteNotificationMatch
}

// topologyChannel is the subset of *amqp.Channel used to declare topology.
type topologyChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

func declareTopology(ch topologyChannel, t Topology) error {
	// 1. Exchanges
	if t.NotificationsExchange != "" {
		if err := ch.ExchangeDeclare(t.NotificationsExchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", t.NotificationsExchange, err)
		}
	}

	// 2. Queues, each with a dead-letter queue reached through the default exchange
	for _, q := range []string{t.RequestQueue, t.NotificationsQueue} {
		dlq := q + contracts.DeadLetterSuffix
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", dlq, err)
		}
		args := amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlq,
		}
		if _, err := ch.QueueDeclare(q, true, false, false, false, args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	// 3. Bindings
	if t.NotificationsExchange != "" {
		if err := ch.QueueBind(t.NotificationsQueue, contracts.RouteNotificationPattern, t.NotificationsExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", t.NotificationsQueue, t.NotificationsExchange, err)
		}
	}

	return nil
}
