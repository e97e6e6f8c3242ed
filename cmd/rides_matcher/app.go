package ridesmatcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rides-matcher/internal/cli"
	"rides-matcher/internal/general/config"
	"rides-matcher/internal/general/logger"
	"rides-matcher/internal/general/mysql"
	"rides-matcher/internal/general/postgres"
	"rides-matcher/internal/general/rabbitmq"
	"rides-matcher/internal/ports"
	"rides-matcher/internal/software/matcher/service"
)

const serviceName = "rides-matcher"

// Run wires the matcher worker and blocks until ctx is cancelled.
func Run(ctx context.Context, opts cli.Options) error {
	cfg, log, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}

	// open the ride store; the ping doubles as the startup connection check
	repo, closeRepo, err := openRideRepository(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "db_connection_failed", "Failed to connect to the ride database", err, nil)
		return err
	}
	defer closeRepo()

	// connect to RabbitMQ and declare the topology
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	exchange, routingKey := rmq.Topology().NotificationRoute()
	consumer, err := service.NewMatcher(log, cfg, repo, rmq, rabbitmq.NewMQPublisher(rmq),
		service.Route{Exchange: exchange, RoutingKey: routingKey})
	if err != nil {
		log.Error(ctx, "matcher_init_failed", "Failed to build the matcher", err, nil)
		return err
	}

	log.Info(ctx, "service_started", "Rides matcher started", map[string]any{
		"db_driver":           cfg.Database.Driver,
		"request_queue":       cfg.Queues.Request,
		"notifications_queue": cfg.Queues.Notifications,
		"exchange":            exchange,
		"routing_key":         routingKey,
		"window_before":       cfg.Matcher.WindowBefore.String(),
		"window_after":        cfg.Matcher.WindowAfter.String(),
		"timezone":            cfg.Matcher.Timezone,
	})

	if err := consumer.Run(ctx); err != nil {
		log.Error(ctx, "consumer_failed", "Consumer terminated with error", err, nil)
		return err
	}

	log.Info(ctx, "service_stopped", "Rides matcher stopped", nil)
	return nil
}

// Check loads the configuration and verifies the database is reachable.
func Check(ctx context.Context, opts cli.Options) error {
	cfg, log, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	repo, closeRepo, err := openRideRepository(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "db_check_failed", "Database is not reachable", err,
			map[string]any{"driver": cfg.Database.Driver, "host": cfg.Database.Host})
		return err
	}
	defer closeRepo()

	if err := repo.Ping(ctx); err != nil {
		log.Error(ctx, "db_check_failed", "Database ping failed", err, nil)
		return err
	}

	log.Info(ctx, "db_check_ok", "Database connection verified", map[string]any{
		"driver":      cfg.Database.Driver,
		"host":        cfg.Database.Host,
		"database":    cfg.Database.Name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// bootstrap loads the config and builds the logger with the effective level.
func bootstrap(ctx context.Context, opts cli.Options) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		level := opts.LogLevel
		if level == "" {
			level = "info"
		}
		logger.New(serviceName, level).Error(ctx, "config_load_failed", "Failed to load configuration", err,
			map[string]any{"config_path": opts.ConfigPath, "env_file": opts.EnvFile})
		return nil, nil, err
	}

	level := cfg.Log.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	log := logger.New(serviceName, level)

	log.Info(ctx, "config_loaded", "Configuration loaded", map[string]any{
		"config_path": opts.ConfigPath,
		"log_level":   level,
	})
	return cfg, log, nil
}

// openRideRepository opens the pool for the configured driver.
func openRideRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.RideRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRideRepo(pool, cfg.Database.RidesTable, cfg.Database.DepartureColumn), pool.Close, nil

	case config.DriverMySQL:
		loc, err := cfg.Location()
		if err != nil {
			return nil, nil, err
		}
		db, err := mysql.NewDB(ctx, cfg, loc, log)
		if err != nil {
			return nil, nil, err
		}
		return mysql.NewRideRepo(db, cfg.Database.RidesTable, cfg.Database.DepartureColumn), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
