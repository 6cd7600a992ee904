package config

import (
	"fmt"
	"net/url"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"DATABASE_DRIVER"`
	URL          string `mapstructure:"DATABASE_URL"`
	Host         string `mapstructure:"DATABASE_HOST"`
	Port         string `mapstructure:"DATABASE_PORT"`
	Name         string `mapstructure:"DATABASE_NAME"`
	User         string `mapstructure:"DATABASE_USER"`
	Password     string `mapstructure:"DATABASE_PASSWORD"`
	SSLMode      string `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"REDIS_ENABLED"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	SweepCron string `mapstructure:"SCHEDULER_SWEEP_CRON"`
	Timezone  string `mapstructure:"SCHEDULER_TIMEZONE"`
	LockTTL   string `mapstructure:"SCHEDULER_LOCK_TTL"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_TIMEOUT"`
}

var keys = []string{
	"SERVER_PORT", "SERVER_HOST", "ENV", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
	"DATABASE_DRIVER", "DATABASE_URL", "DATABASE_HOST", "DATABASE_PORT", "DATABASE_NAME",
	"DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_SSLMODE", "DATABASE_MAX_OPEN_CONNS", "DATABASE_MAX_IDLE_CONNS",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"SCHEDULER_SWEEP_CRON", "SCHEDULER_TIMEZONE", "SCHEDULER_LOCK_TTL",
	"LOG_LEVEL", "LOG_FORMAT",
	"HEALTH_TIMEOUT",
}

// Load reads configuration from the environment, after loading .env when one exists
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("DATABASE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "pawn_ledger")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SCHEDULER_SWEEP_CRON", "0 */15 * * * *")
	v.SetDefault("SCHEDULER_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("SCHEDULER_LOCK_TTL", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("HEALTH_TIMEOUT", "5s")

	v.AutomaticEnv()
	// AutomaticEnv only reaches keys viper already knows about
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
		}
	case DriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("DATABASE_DRIVER %q is not allowed in production", DriverMemory)
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q", DriverPostgres, DriverMemory)
	}

	if _, err := cron.NewParser(cronFields).Parse(c.Scheduler.SweepCron); err != nil {
		return fmt.Errorf("SCHEDULER_SWEEP_CRON must be a valid cron spec: %w", err)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	durations := map[string]string{
		"SERVER_READ_TIMEOUT":  c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT": c.Server.WriteTimeout,
		"SCHEDULER_LOCK_TTL":   c.Scheduler.LockTTL,
		"HEALTH_TIMEOUT":       c.Health.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}

	return nil
}

// cronFields is the six-field layout (with seconds) used by the sweep scheduler
const cronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow

// CronParser returns the parser matching SCHEDULER_SWEEP_CRON
func CronParser() cron.Parser {
	return cron.NewParser(cronFields)
}

// DSN returns the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// Addr returns the redis address
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetReadTimeout returns the server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// GetWriteTimeout returns the server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// GetLockTTL returns the sweep lock lifetime as duration
func (c *Config) GetLockTTL() time.Duration {
	d, _ := time.ParseDuration(c.Scheduler.LockTTL)
	return d
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Health.Timeout)
	return d
}

// GetLocation returns the scheduler time zone
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
