package service

import (
	"context"
	"fmt"
	"time"

	"rides-matcher/internal/domain/ride"
	"rides-matcher/internal/general/contracts"
	"rides-matcher/internal/general/logger"
	"rides-matcher/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const appID = "rides-matcher"

type notificationPublisher struct {
	logger     *logger.Logger
	pub        ports.MessagePublisher
	exchange   string
	routingKey string
}

// NewNotificationPublisher publishes outcomes to exchange with routingKey.
// An empty exchange routes straight to the queue named by routingKey.
func NewNotificationPublisher(logger *logger.Logger, pub ports.MessagePublisher, exchange, routingKey string) ports.NotificationPublisher {
	return &notificationPublisher{logger: logger, pub: pub, exchange: exchange, routingKey: routingKey}
}

// Publish sends outcome as a persistent JSON message. Failures are logged and reported as false.
func (notifier *notificationPublisher) Publish(ctx context.Context, outcome ride.MatchOutcome) bool {
	details := map[string]any{
		"exchange":      notifier.exchange,
		"routing_key":   notifier.routingKey,
		"solicitacaoId": outcome.RequestID.String(),
		"matched":       outcome.Matched(),
	}
	if outcome.Matched() {
		details["caronaId"] = outcome.MatchedRideID.String()
	}

	body, err := contracts.EncodeMatchNotification(outcome)
	if err != nil {
		notifier.logger.Error(ctx, "notification_encode_failed", "Failed to encode match notification",
			fmt.Errorf("%w: %w", ride.ErrPublish, err), details)
		return false
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  contracts.ContentTypeJSON,
		MessageId:    logger.RequestIDFromContext(ctx),
		AppId:        appID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := notifier.pub.Publish(ctx, notifier.exchange, notifier.routingKey, msg); err != nil {
		notifier.logger.Error(ctx, "notification_publish_failed", "Failed to publish match notification",
			fmt.Errorf("%w: %w", ride.ErrPublish, err), details)
		return false
	}

	notifier.logger.Info(ctx, "notification_published", "Match notification published", details)
	return true
}
