package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrPublishNacked      = errors.New("rabbitmq: publish not acknowledged by broker")
	ErrConfirmStreamEnded = errors.New("rabbitmq: confirm stream closed before acknowledgement")
)

// MQPublisher publishes through the Client's confirm-mode channel.
type MQPublisher struct {
	Client *Client
}

// NewMQPublisher constructs an MQPublisher using the provided RabbitMQ client.
func NewMQPublisher(client *Client) *MQPublisher {
	return &MQPublisher{Client: client}
}

// Publish sends msg to exchange with routingKey and waits for the broker confirm.
func (publisher *MQPublisher) Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	return publisher.Client.PublishMessage(ctx, exchange, routingKey, msg)
}

// PublishMessage publishes msg as mandatory and blocks until the broker confirms it,
// the confirm stream closes or ctx is done.
func (client *Client) PublishMessage(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return ErrNotConnected
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	// one publish in flight keeps confirms aligned with publishes
	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	if err := ch.PublishWithContext(ctx, exchange, routingKey, true /* mandatory */, false /* immediate */, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish to %q/%q: %w", exchange, routingKey, err)
	}

	select {
	case c, ok := <-confirms:
		if !ok {
			return ErrConfirmStreamEnded
		}
		if !c.Ack {
			return ErrPublishNacked
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
