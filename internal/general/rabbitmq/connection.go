package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rides-matcher/internal/general/config"
	"rides-matcher/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrClientClosed is returned when a reconnect finishes after Close.
var ErrClientClosed = errors.New("rabbitmq: client is closed")

const (
	heartbeatInterval = 10 * time.Second
	maxReconnectDelay = 30 * time.Second
)

// Client keeps one AMQP connection alive, re-declares the topology after every
// reconnect and owns a confirm-mode channel for publishing.
type Client struct {
	url      string
	topology Topology
	logger   *logger.Logger
	logCtx   context.Context

	mu      sync.RWMutex
	conn    *amqp.Connection
	pubChan *amqp.Channel

	pubMu       sync.Mutex
	pubConfirms <-chan amqp.Confirmation

	closeOnce sync.Once
	closed    chan struct{}
	reconnect chan struct{}
}

// ConnectRabbitMQ dials the broker once and starts a background watcher that reconnects on failures.
func ConnectRabbitMQ(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Client, error) {
	client := &Client{
		url:       cfg.AMQPURL(),
		topology:  TopologyFromConfig(cfg),
		logger:    logger,
		logCtx:    context.WithoutCancel(ctx),
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
	}

	if err := client.connectOnce(); err != nil {
		return nil, err
	}

	go client.watch()

	return client, nil
}

// Topology returns the queue layout the client declares.
func (client *Client) Topology() Topology {
	return client.topology
}

// Close stops the watcher and closes the connection. Pending confirm waits are released
// because the library closes the confirm stream with the channel.
func (client *Client) Close() {
	client.closeOnce.Do(func() { close(client.closed) })

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.pubChan != nil {
		_ = client.pubChan.Close()
		client.pubChan = nil
	}
	if client.conn != nil {
		_ = client.conn.Close()
		client.conn = nil
	}
}

func (client *Client) connectOnce() (err error) {
	conn, err := amqp.DialConfig(client.url, amqp.Config{
		Heartbeat: heartbeatInterval,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_dial_failed", "Failed to dial RabbitMQ", err, nil)
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_open_channel_failed", "Failed to open RabbitMQ channel", err, nil)
		return fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}

	if err = declareTopology(ch, client.topology); err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_declare_topology_failed", "Failed to declare RabbitMQ topology", err,
			map[string]any{"request_queue": client.topology.RequestQueue, "notifications_queue": client.topology.NotificationsQueue})
		return fmt.Errorf("rabbitmq: failed to declare topology: %w", err)
	}

	if err = ch.Confirm(false); err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_enable_confirms_failed", "Failed to enable publisher confirms", err, nil)
		return fmt.Errorf("rabbitmq: failed to enable confirms: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	// unroutable publishes (mandatory=true) come back here
	returns := ch.NotifyReturn(make(chan amqp.Return, 1))
	go func() {
		for r := range returns {
			client.logger.Warn(client.logCtx, "rabbitmq_returned", "Message was returned as unroutable",
				map[string]any{
					"exchange":    r.Exchange,
					"routing_key": r.RoutingKey,
					"reply_code":  r.ReplyCode,
					"reply_text":  r.ReplyText,
					"message_id":  r.MessageId,
				})
		}
	}()

	if !client.adopt(conn, ch) {
		return ErrClientClosed
	}

	client.pubMu.Lock()
	client.pubConfirms = confirms
	client.pubMu.Unlock()

	go func() {
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-client.closed:
			return
		case <-connClosed:
		case <-chClosed:
		}

		select {
		case client.reconnect <- struct{}{}:
		default:
		}
	}()

	client.logger.Info(client.logCtx, "rabbitmq_connected", "RabbitMQ connection established successfully",
		map[string]any{"request_queue": client.topology.RequestQueue})

	return nil
}

// adopt installs a fresh connection unless Close already ran. The check and the
// store share mu with Close, so a closed client never holds a live connection.
func (client *Client) adopt(conn *amqp.Connection, ch *amqp.Channel) bool {
	client.mu.Lock()
	defer client.mu.Unlock()

	select {
	case <-client.closed:
		return false
	default:
	}

	if client.pubChan != nil && !client.pubChan.IsClosed() {
		_ = client.pubChan.Close()
	}
	client.conn = conn
	client.pubChan = ch
	return true
}

// watch reconnects with exponential backoff until Close is called.
func (client *Client) watch() {
	for {
		select {
		case <-client.closed:
			return
		case <-client.reconnect:
		}

		backoff := time.Second
		for {
			select {
			case <-client.closed:
				return
			default:
			}

			err := client.connectOnce()
			if err == nil {
				client.logger.Info(client.logCtx, "rabbitmq_reconnected", "Reconnected to RabbitMQ and re-declared topology", nil)
				break
			}
			if errors.Is(err, ErrClientClosed) {
				return
			}

			client.logger.Error(client.logCtx, "retry_attempted", "Failed to reconnect to RabbitMQ", err,
				map[string]any{"retry_in": backoff.String()})

			select {
			case <-client.closed:
				return
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff)
		}
	}
}

// nextBackoff doubles d, capped at maxReconnectDelay.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectDelay {
		return maxReconnectDelay
	}
	return d
}
