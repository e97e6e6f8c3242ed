package mysql

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"rides-matcher/internal/general/config"
	"rides-matcher/internal/general/logger"

	driver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// dsn builds the driver DSN; timestamps are parsed and read in loc.
func dsn(cfg *config.Config, loc *time.Location) string {
	mc := driver.NewConfig()
	mc.User = cfg.Database.User
	mc.Passwd = cfg.Database.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port))
	mc.DBName = cfg.Database.Name
	mc.ParseTime = true
	mc.Loc = loc
	mc.Timeout = 5 * time.Second
	return mc.FormatDSN()
}

// NewDB opens a pooled sqlx handle, verifies connectivity, and returns it.
// The handle is opened once per process and shared by every delivery.
func NewDB(ctx context.Context, cfg *config.Config, loc *time.Location, logger *logger.Logger) (*sqlx.DB, error) {
	start := time.Now()

	// one-time sanity log (do not print the password)
	logger.Info(ctx, "db_config_check", "Effective DB connection parameters", map[string]any{
		"driver":         config.DriverMySQL,
		"host":           cfg.Database.Host,
		"port":           cfg.Database.Port,
		"user":           cfg.Database.User,
		"database":       cfg.Database.Name,
		"password_empty": cfg.Database.Password == "",
		"loc":            loc.String(),
	})

	db, err := sqlx.Open("mysql", dsn(cfg, loc))
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}

	// one delivery in flight, so a small pool is enough
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// verify connectivity with a bounded timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}

	logger.Info(ctx, "db_connected", "Connected to MySQL database", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return db, nil
}
