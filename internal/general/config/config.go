package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	Database struct {
		Driver          string
		Host            string
		Port            int
		User            string
		Password        string
		Name            string
		RidesTable      string
		IDColumn        string
		DepartureColumn string
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
		VHost    string
	}
	Queues struct {
		Request               string
		Notifications         string
		NotificationsExchange string
	}
	Matcher struct {
		WindowBefore     time.Duration
		WindowAfter      time.Duration
		Timezone         string
		RequeueOnFailure bool
		ConsumerTag      string
	}
	Log struct {
		Level string
	}
}

// legacyEnv maps config keys to the environment names the deployed worker already uses.
var legacyEnv = map[string][]string{
	"database.host":        {"DB_HOST"},
	"database.port":        {"DB_PORT"},
	"database.user":        {"DB_USERNAME", "DB_USER"},
	"database.password":    {"DB_PASSWORD"},
	"database.name":        {"DB_NAME"},
	"rabbitmq.host":        {"RABBIT_HOST"},
	"rabbitmq.port":        {"RABBIT_PORT"},
	"rabbitmq.user":        {"RABBIT_USER"},
	"rabbitmq.password":    {"RABBIT_PASS"},
	"queues.request":       {"QUEUE_REQUEST"},
	"queues.notifications": {"QUEUE_NOTIFICATIONS", "QUEUE_MATCHES"},
	"log.level":            {"LOG_LEVEL"},
}

// Load reads configuration from an optional YAML file, an optional .env file
// and the environment (environment wins). Missing files are not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		// gotenv never overrides variables that are already set
		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		args := append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers defaults that do not depend on other keys.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.rides_table", "carona")
	v.SetDefault("database.id_column", "id")
	v.SetDefault("database.departure_column", "dataHoraPartida")

	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.vhost", "/")

	v.SetDefault("queues.notifications_exchange", "")

	v.SetDefault("matcher.window_before", "30m")
	v.SetDefault("matcher.window_after", "30m")
	v.SetDefault("matcher.timezone", "UTC")
	v.SetDefault("matcher.requeue_on_failure", false)
	v.SetDefault("matcher.consumer_tag", "rides-matcher")

	v.SetDefault("log.level", "info")
}

func fromViper(v *viper.Viper) *Config {
	var cfg Config

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(v.GetString("database.driver")))
	cfg.Database.Host = v.GetString("database.host")
	cfg.Database.Port = v.GetInt("database.port")
	cfg.Database.User = v.GetString("database.user")
	cfg.Database.Password = v.GetString("database.password")
	cfg.Database.Name = v.GetString("database.name")
	cfg.Database.RidesTable = v.GetString("database.rides_table")
	cfg.Database.IDColumn = v.GetString("database.id_column")
	cfg.Database.DepartureColumn = v.GetString("database.departure_column")

	cfg.RabbitMQ.Host = v.GetString("rabbitmq.host")
	cfg.RabbitMQ.Port = v.GetInt("rabbitmq.port")
	cfg.RabbitMQ.User = v.GetString("rabbitmq.user")
	cfg.RabbitMQ.Password = v.GetString("rabbitmq.password")
	cfg.RabbitMQ.VHost = v.GetString("rabbitmq.vhost")

	cfg.Queues.Request = v.GetString("queues.request")
	cfg.Queues.Notifications = v.GetString("queues.notifications")
	cfg.Queues.NotificationsExchange = v.GetString("queues.notifications_exchange")

	cfg.Matcher.WindowBefore = v.GetDuration("matcher.window_before")
	cfg.Matcher.WindowAfter = v.GetDuration("matcher.window_after")
	cfg.Matcher.Timezone = v.GetString("matcher.timezone")
	cfg.Matcher.RequeueOnFailure = v.GetBool("matcher.requeue_on_failure")
	cfg.Matcher.ConsumerTag = v.GetString("matcher.consumer_tag")

	cfg.Log.Level = v.GetString("log.level")

	return &cfg
}

// applyDefaults sets defaults that depend on other fields.
func applyDefaults(cfg *Config) {
	if cfg.Database.Port == 0 {
		switch cfg.Database.Driver {
		case DriverPostgres:
			cfg.Database.Port = 5432
		default:
			cfg.Database.Port = 3306
		}
	}
	if strings.TrimSpace(cfg.RabbitMQ.VHost) == "" {
		cfg.RabbitMQ.VHost = "/"
	}
}

// Location returns the time zone used to read local departure times.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Matcher.Timezone)
}

// AMQPURL builds the broker URL from the RabbitMQ section.
// Credentials and vhost are escaped, so any password string is accepted.
func (c *Config) AMQPURL() string {
	u := &url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RabbitMQ.User, c.RabbitMQ.Password),
		Host:   net.JoinHostPort(c.RabbitMQ.Host, strconv.Itoa(c.RabbitMQ.Port)),
		Path:   "/",
	}

	// "/" is the default vhost and is written as an empty path segment
	vhost := strings.TrimPrefix(c.RabbitMQ.VHost, "/")
	if c.RabbitMQ.VHost != "/" && vhost != "" {
		u.Path = "/" + vhost
		u.RawPath = "/" + url.PathEscape(vhost)
	}
	return u.String()
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
	default:
		problems = append(problems, fmt.Sprintf("database.driver must be %q or %q", DriverMySQL, DriverPostgres))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}
	if c.Database.RidesTable == "" || c.Database.IDColumn == "" || c.Database.DepartureColumn == "" {
		problems = append(problems, "database.rides_table, database.id_column and database.departure_column must not be empty")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// Queues
	if c.Queues.Request == "" {
		problems = append(problems, "queues.request is required")
	}
	if c.Queues.Notifications == "" {
		problems = append(problems, "queues.notifications is required")
	}

	// Matcher
	if c.Matcher.WindowBefore < 0 || c.Matcher.WindowAfter < 0 {
		problems = append(problems, "matcher.window_before and matcher.window_after must not be negative")
	}
	if _, err := time.LoadLocation(c.Matcher.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("matcher.timezone: %v", err))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
