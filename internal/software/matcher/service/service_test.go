package service

import (
	"context"
	"testing"
	"time"

	"rides-matcher/internal/general/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "time/tzdata"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.IDColumn = "id"
	cfg.Database.DepartureColumn = departureColumn
	cfg.Queues.Request = "rides.request"
	cfg.Queues.Notifications = "notifications"
	cfg.Matcher.WindowBefore = 30 * time.Minute
	cfg.Matcher.WindowAfter = 30 * time.Minute
	cfg.Matcher.Timezone = "America/Sao_Paulo"
	cfg.Matcher.ConsumerTag = "rides-matcher"
	return cfg
}

func TestNewMatcher_ReadsLocalTimesInConfiguredZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	repo := &fakeRideRepo{rows: []map[string]any{
		rideRow(7, time.Date(2024, time.May, 1, 10, 20, 0, 0, loc)),
	}}
	pub := &fakePublisher{}
	consumer, err := NewMatcher(newTestLogger(), testConfig(), repo, &fakeSource{}, pub, Route{RoutingKey: "notifications"})
	require.NoError(t, err)

	stage := consumer.handleDelivery(context.Background(), newDelivery(&fakeAcknowledger{}, 1, requestAt10))

	assert.Equal(t, StageAcked, stage)
	require.Len(t, repo.calls, 1)
	assert.True(t, repo.calls[0][0].Equal(time.Date(2024, time.May, 1, 9, 30, 0, 0, loc)))
	require.Len(t, pub.sent, 1)
	assert.JSONEq(t, `{"caronaId": 7, "solicitacaoId": 42}`, string(pub.sent[0].msg.Body))
}

func TestNewMatcher_InvalidTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Matcher.Timezone = "Mars/Olympus_Mons"

	_, err := NewMatcher(newTestLogger(), cfg, &fakeRideRepo{}, &fakeSource{}, &fakePublisher{}, Route{})
	require.Error(t, err)
}
