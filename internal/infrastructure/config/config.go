package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Ledger    LedgerConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    int // in minutes
	ConnMaxIdleTime    int // in minutes
	LogLevel           string
	SlowQueryThreshold time.Duration
	AutoMigrate        bool // apply embedded migrations at startup
}

// RedisConfig holds Redis connection settings. When disabled the
// idempotency store lives in process memory.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// LedgerConfig holds the inventory ledger settings
type LedgerConfig struct {
	Timezone           string // business day for codes
	MaxAttempts        int    // units of work tried per write before giving up
	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
}

// Location resolves the configured business time zone
func (l LedgerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ledger.timezone %q: %w", l.Timezone, err)
	}
	return loc, nil
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // OTLP gRPC endpoint, e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool // bridge zap entries to the collector
	DBTracing         bool
	DBLogFullSQL      bool
}

// Load reads configuration from config.toml and the environment.
// Priority (highest to lowest):
// 1. Environment variables with BULLION_ prefix (e.g. BULLION_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bullion")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds the configuration from an already prepared viper
// instance, layering BULLION_ environment variables on top
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("BULLION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		HTTP: HTTPConfig{
			Port:             v.GetString("http.port"),
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("database.host"),
			Port:               v.GetInt("database.port"),
			User:               v.GetString("database.user"),
			Password:           v.GetString("database.password"),
			DBName:             v.GetString("database.dbname"),
			SSLMode:            v.GetString("database.sslmode"),
			MaxOpenConns:       v.GetInt("database.max_open_conns"),
			MaxIdleConns:       v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime:    v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime:    v.GetInt("database.conn_max_idle_time"),
			LogLevel:           v.GetString("database.log_level"),
			SlowQueryThreshold: v.GetDuration("database.slow_query_threshold"),
			AutoMigrate:        v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Ledger: LedgerConfig{
			Timezone:           v.GetString("ledger.timezone"),
			MaxAttempts:        v.GetInt("ledger.max_attempts"),
			IdempotencyEnabled: !v.IsSet("ledger.idempotency_enabled") || v.GetBool("ledger.idempotency_enabled"),
			IdempotencyTTL:     v.GetDuration("ledger.idempotency_ttl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTracing:         v.GetBool("telemetry.db_tracing"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bullion-ledger"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"}
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "bullion"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowQueryThreshold == 0 {
		cfg.Database.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Ledger.Timezone == "" {
		cfg.Ledger.Timezone = "Asia/Ho_Chi_Minh"
	}
	if cfg.Ledger.MaxAttempts == 0 {
		cfg.Ledger.MaxAttempts = 5
	}
	if cfg.Ledger.IdempotencyTTL == 0 {
		cfg.Ledger.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Ledger.MaxAttempts < 1 {
		return fmt.Errorf("ledger.max_attempts must be at least 1, got %d", c.Ledger.MaxAttempts)
	}
	if _, err := c.Ledger.Location(); err != nil {
		return err
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}
	return nil
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
