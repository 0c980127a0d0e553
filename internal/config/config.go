// Package config loads process configuration from PARKADMIN_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFS       = "fs"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
	DriverRedis    = "redis"
)

// Notification modes for cross-context change delivery.
const (
	NotifyAuto  = "auto"
	NotifyRedis = "redis"
	NotifyPoll  = "poll"
	NotifyNone  = "none"
)

// Config is the full process configuration.
type Config struct {
	Driver    string        `env:"PARKADMIN_STORAGE_DRIVER" envDefault:"fs"`
	Notify    string        `env:"PARKADMIN_NOTIFY"         envDefault:"auto"`
	PollEvery time.Duration `env:"PARKADMIN_POLL_INTERVAL"  envDefault:"2s"`

	FSRoot      string `env:"PARKADMIN_FS_ROOT"      envDefault:"./parkdata"`
	SQLitePath  string `env:"PARKADMIN_SQLITE_PATH"  envDefault:"parkadmin.db"`
	PostgresDSN string `env:"PARKADMIN_POSTGRES_DSN"`

	S3 S3Config `envPrefix:"PARKADMIN_S3_"`

	Redis RedisConfig `envPrefix:"PARKADMIN_REDIS_"`

	Session SessionConfig `envPrefix:"PARKADMIN_SESSION_"`

	LogMode     string `env:"PARKADMIN_LOG_MODE"     envDefault:"prod"`
	MetricsAddr string `env:"PARKADMIN_METRICS_ADDR"`
}

// S3Config configures the s3 driver.
type S3Config struct {
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION"   envDefault:"us-east-1"`
	Prefix          string `env:"PREFIX"`
	Endpoint        string `env:"ENDPOINT"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	PathStyle       bool   `env:"PATH_STYLE"`
}

// RedisConfig configures the redis driver and notifier.
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"`
	Prefix   string `env:"PREFIX"  envDefault:"parkadmin:"`
	Channel  string `env:"CHANNEL" envDefault:"parkadmin:changes"`
}

// SessionConfig configures the admin login.
type SessionConfig struct {
	TTL        time.Duration `env:"TTL"         envDefault:"24h"`
	Identifier string        `env:"IDENTIFIER"  envDefault:"admin@parque.com"`
	Secret     string        `env:"SECRET"      envDefault:"admin123"`
	SecretHash string        `env:"SECRET_HASH"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	cfg.Notify = strings.ToLower(strings.TrimSpace(cfg.Notify))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration produced by an empty environment.
func Default() Config {
	cfg := Config{}
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate checks driver-specific requirements.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMemory, DriverFS, DriverSQLite, DriverPostgres:
	case DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("PARKADMIN_S3_BUCKET required for s3 driver")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("PARKADMIN_REDIS_ADDR required for redis driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	switch c.Notify {
	case NotifyAuto, NotifyPoll, NotifyNone:
	case NotifyRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("PARKADMIN_REDIS_ADDR required for redis notifications")
		}
	default:
		return fmt.Errorf("unknown notification mode %q", c.Notify)
	}
	if c.PollEvery <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return nil
}
