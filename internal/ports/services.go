package ports

import (
	"context"
	"time"

	"rides-matcher/internal/domain/ride"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessagePublisher publishes a persistent message.
type MessagePublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error
}

// DeliverySource feeds deliveries from queue to handler, one at a time,
// until ctx is cancelled or the subscription drops. The handler settles
// (acks or nacks) every delivery it receives.
type DeliverySource interface {
	Consume(ctx context.Context, queue, consumerTag string, prefetch int, handler func(context.Context, amqp.Delivery)) error
}

// RideStore finds candidate rides around a departure time. It never fails:
// storage errors yield an empty result.
type RideStore interface {
	FindRidesNear(ctx context.Context, centerTime time.Time) []ride.CandidateRide
}

// MatchEngine validates a request and returns its candidates.
type MatchEngine interface {
	Evaluate(ctx context.Context, request ride.RideRequest) ([]ride.CandidateRide, error)
}

// NotificationPublisher emits a match outcome and reports success.
type NotificationPublisher interface {
	Publish(ctx context.Context, outcome ride.MatchOutcome) bool
}
