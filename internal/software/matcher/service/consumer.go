package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rides-matcher/internal/domain/ride"
	"rides-matcher/internal/general/contracts"
	"rides-matcher/internal/general/logger"
	"rides-matcher/internal/ports"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Stage is a step of the per-delivery state machine.
type Stage string

const (
	StageReceived  Stage = "received"
	StageDecoded   Stage = "decoded"
	StageValidated Stage = "validated"
	StageMatched   Stage = "matched"
	StageNotified  Stage = "notified"
	StageAcked     Stage = "acked"
	StageFailed    Stage = "failed"
	StageNacked    Stage = "nacked"
)

const (
	// at most one unacknowledged request per process
	prefetchCount = 1

	minResubscribeDelay = time.Second
	maxResubscribeDelay = 30 * time.Second
)

// ConsumerConfig configures the request consumer.
type ConsumerConfig struct {
	Queue            string
	ConsumerTag      string
	RequeueOnFailure bool
	Location         *time.Location
}

// RequestConsumer drives each ride request from receipt to ack or nack.
type RequestConsumer struct {
	logger   *logger.Logger
	source   ports.DeliverySource
	engine   ports.MatchEngine
	notifier ports.NotificationPublisher
	cfg      ConsumerConfig
}

// NewRequestConsumer builds a consumer reading cfg.Queue from source.
func NewRequestConsumer(
	logger *logger.Logger,
	source ports.DeliverySource,
	engine ports.MatchEngine,
	notifier ports.NotificationPublisher,
	cfg ConsumerConfig,
) *RequestConsumer {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &RequestConsumer{
		logger:   logger,
		source:   source,
		engine:   engine,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Run consumes until ctx is cancelled. A dropped subscription is re-established
// with exponential backoff; a delivery in progress always completes first.
func (consumer *RequestConsumer) Run(ctx context.Context) error {
	tag := consumer.cfg.ConsumerTag + "-" + uuid.NewString()
	delay := minResubscribeDelay

	for {
		consumer.logger.Info(ctx, "consumer_subscribing", "Waiting for ride requests",
			map[string]any{"queue": consumer.cfg.Queue, "consumer_tag": tag, "prefetch": prefetchCount})

		started := time.Now()
		err := consumer.source.Consume(ctx, consumer.cfg.Queue, tag, prefetchCount, consumer.handle)
		if ctx.Err() != nil {
			consumer.logger.Info(ctx, "consumer_stopped", "Stopped consuming ride requests",
				map[string]any{"queue": consumer.cfg.Queue})
			return nil
		}

		if err != nil {
			consumer.logger.Error(ctx, "consumer_subscription_lost", "Ride request subscription lost", err,
				map[string]any{"queue": consumer.cfg.Queue, "retry_in": delay.String()})
		} else {
			consumer.logger.Warn(ctx, "consumer_stream_ended", "Ride request stream ended",
				map[string]any{"queue": consumer.cfg.Queue, "retry_in": delay.String()})
		}

		// a subscription that lived long enough starts the backoff over
		if time.Since(started) > maxResubscribeDelay {
			delay = minResubscribeDelay
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxResubscribeDelay {
			delay = maxResubscribeDelay
		}
	}
}

func (consumer *RequestConsumer) handle(ctx context.Context, d amqp.Delivery) {
	consumer.handleDelivery(ctx, d)
}

// handleDelivery processes one delivery, settles it and returns the terminal stage.
func (consumer *RequestConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) (stage Stage) {
	ctx = consumer.logger.WithRequestID(ctx, uuid.NewString())
	stage = StageReceived

	consumer.logger.Info(ctx, "request_received", "Ride request received", map[string]any{
		"delivery_tag": d.DeliveryTag,
		"redelivered":  d.Redelivered,
		"message_id":   d.MessageId,
		"size":         len(d.Body),
	})

	defer func() {
		if r := recover(); r != nil {
			stage = consumer.fail(ctx, d, stage, fmt.Errorf("panic while processing delivery: %v", r))
		}
	}()

	// 1. decode
	msg, err := contracts.DecodeRideRequest(d.Body)
	if err != nil {
		return consumer.fail(ctx, d, stage, err)
	}
	ctx = consumer.logger.WithRideRequestID(ctx, msg.SolicitacaoID.String())

	request, err := msg.Normalize(consumer.cfg.Location)
	if err != nil {
		return consumer.fail(ctx, d, StageDecoded, err)
	}
	stage = StageDecoded

	// 2. validate
	if err := validateRequest(request); err != nil {
		return consumer.fail(ctx, d, stage, err)
	}
	stage = StageValidated
	consumer.logger.Info(ctx, "request_validated", "Ride request validated", map[string]any{
		"departure_time": request.DepartureTime.Format(time.RFC3339),
	})

	// 3. match
	candidates, err := consumer.engine.Evaluate(ctx, request)
	if err != nil {
		return consumer.fail(ctx, d, stage, err)
	}
	outcome := ride.NewMatchOutcome(request.RequestID, candidates)
	stage = StageMatched

	matched := map[string]any{"candidates": len(candidates)}
	if outcome.Matched() {
		matched["matched_ride_id"] = outcome.MatchedRideID.String()
	}
	consumer.logger.Info(ctx, "request_matched", fmt.Sprintf("Ride request matched against %d candidates", len(candidates)), matched)

	// 4. notify; the result does not change the ack decision
	published := consumer.notifier.Publish(ctx, outcome)
	stage = StageNotified

	// 5. ack
	if err := d.Ack(false); err != nil {
		consumer.logger.Error(ctx, "delivery_ack_failed", "Failed to ack ride request", err,
			map[string]any{"delivery_tag": d.DeliveryTag, "published": published})
		return stage
	}
	consumer.logger.Info(ctx, "delivery_acked", "Ride request acked", map[string]any{
		"delivery_tag": d.DeliveryTag,
		"published":    published,
	})
	return StageAcked
}

// fail logs err against the stage it happened after and nacks d.
func (consumer *RequestConsumer) fail(ctx context.Context, d amqp.Delivery, from Stage, err error) Stage {
	consumer.logger.Error(ctx, "request_failed", "Failed to process ride request", err, map[string]any{
		"stage":        string(from),
		"reason":       failureReason(err),
		"delivery_tag": d.DeliveryTag,
	})

	if nackErr := d.Nack(false, consumer.cfg.RequeueOnFailure); nackErr != nil {
		consumer.logger.Error(ctx, "delivery_nack_failed", "Failed to nack ride request", nackErr,
			map[string]any{"delivery_tag": d.DeliveryTag})
		return StageFailed
	}

	consumer.logger.Info(ctx, "delivery_nacked", "Ride request nacked", map[string]any{
		"delivery_tag": d.DeliveryTag,
		"requeue":      consumer.cfg.RequeueOnFailure,
	})
	return StageNacked
}

func failureReason(err error) string {
	var validationErr *ride.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return "validation: " + validationErr.Field + " " + validationErr.Reason
	case errors.Is(err, ride.ErrDecode):
		return "decode"
	case errors.Is(err, ride.ErrStorage):
		return "storage"
	default:
		return "processing"
	}
}
