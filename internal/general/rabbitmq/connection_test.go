package rabbitmq

import (
	"testing"
	"time"

	"rides-matcher/internal/general/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second))
	assert.Equal(t, 16*time.Second, nextBackoff(8*time.Second))
	assert.Equal(t, maxReconnectDelay, nextBackoff(16*time.Second))
	assert.Equal(t, maxReconnectDelay, nextBackoff(maxReconnectDelay))
}

func TestTopologyFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Queues.Request = "caronas.solicitacoes"
	cfg.Queues.Notifications = "caronas.matches"

	topo := TopologyFromConfig(cfg)
	assert.Equal(t, Topology{RequestQueue: "caronas.solicitacoes", NotificationsQueue: "caronas.matches"}, topo)
}

func TestAdopt_RefusesConnectionAfterClose(t *testing.T) {
	client := &Client{closed: make(chan struct{}), reconnect: make(chan struct{}, 1)}
	client.Close()

	conn := &amqp.Connection{}
	assert.False(t, client.adopt(conn, nil))

	client.mu.RLock()
	defer client.mu.RUnlock()
	assert.Nil(t, client.conn)
	assert.Nil(t, client.pubChan)
}

func TestAdopt_InstallsConnectionWhileOpen(t *testing.T) {
	client := &Client{closed: make(chan struct{}), reconnect: make(chan struct{}, 1)}

	conn := &amqp.Connection{}
	assert.True(t, client.adopt(conn, nil))

	client.mu.RLock()
	defer client.mu.RUnlock()
	assert.Same(t, conn, client.conn)
}
