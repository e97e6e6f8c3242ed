package service

import (
	"fmt"

	"rides-matcher/internal/general/config"
	"rides-matcher/internal/general/logger"
	"rides-matcher/internal/ports"
)

// Route is where match notifications are published.
type Route struct {
	Exchange   string
	RoutingKey string
}

// NewMatcher wires the ride store, match engine, notifier and request consumer from cfg.
func NewMatcher(
	logger *logger.Logger,
	cfg *config.Config,
	repo ports.RideRepository,
	source ports.DeliverySource,
	pub ports.MessagePublisher,
	route Route,
) (*RequestConsumer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("matcher: load timezone %q: %w", cfg.Matcher.Timezone, err)
	}

	store := NewRideStore(logger, repo, RideStoreConfig{
		Before:          cfg.Matcher.WindowBefore,
		After:           cfg.Matcher.WindowAfter,
		IDColumn:        cfg.Database.IDColumn,
		DepartureColumn: cfg.Database.DepartureColumn,
		Location:        loc,
	})
	engine := NewMatchEngine(logger, store)
	notifier := NewNotificationPublisher(logger, pub, route.Exchange, route.RoutingKey)

	return NewRequestConsumer(logger, source, engine, notifier, ConsumerConfig{
		Queue:            cfg.Queues.Request,
		ConsumerTag:      cfg.Matcher.ConsumerTag,
		RequeueOnFailure: cfg.Matcher.RequeueOnFailure,
		Location:         loc,
	}), nil
}
