package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"rides-matcher/internal/general/config"
	"rides-matcher/internal/general/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationName = "rides-matcher"
	connectTimeout  = 5 * time.Second

	// one delivery in flight per process
	maxPoolConns = 4
)

// poolConfig turns the database section into a pgxpool config. The session
// time zone follows matcher.timezone so timestamp columns compare in local time.
func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Database.User, cfg.Database.Password),
		Host:     net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port)),
		Path:     "/" + cfg.Database.Name,
		RawQuery: url.Values{"sslmode": {"disable"}}.Encode(),
	}

	pcfg, err := pgxpool.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("postgres parse dsn: %w", err)
	}

	pcfg.ConnConfig.ConnectTimeout = connectTimeout
	if pcfg.ConnConfig.RuntimeParams == nil {
		pcfg.ConnConfig.RuntimeParams = make(map[string]string, 2)
	}
	pcfg.ConnConfig.RuntimeParams["timezone"] = cfg.Matcher.Timezone
	pcfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pcfg.MaxConns = maxPoolConns
	pcfg.MinConns = 1
	pcfg.HealthCheckPeriod = 30 * time.Second
	pcfg.MaxConnIdleTime = 5 * time.Minute

	return pcfg, nil
}

// NewPool opens the process-wide pool and pings it once. The ping is the
// startup connection check of both the worker and db-check modes.
func NewPool(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*pgxpool.Pool, error) {
	start := time.Now()

	pcfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "db_config_check", "Effective DB connection parameters", map[string]any{
		"driver":         config.DriverPostgres,
		"host":           pcfg.ConnConfig.Host,
		"port":           pcfg.ConnConfig.Port,
		"user":           pcfg.ConnConfig.User,
		"database":       pcfg.ConnConfig.Database,
		"password_empty": pcfg.ConnConfig.Password == "",
		"timezone":       cfg.Matcher.Timezone,
		"max_conns":      pcfg.MaxConns,
	})

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping %s: %w", pcfg.ConnConfig.Host, err)
	}

	logger.Info(ctx, "db_connected", "Connected to PostgreSQL database", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return pool, nil
}
