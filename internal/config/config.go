package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/Oldhoon/accessible-journeys/pkg/config"
)

// Config holds all configuration for the accessible-journeys service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"journeys"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"journeys_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"accessible_journeys"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	RunMigrations         bool  `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Rate limiting for mutating routes
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Optional HS256 secret; empty means the X-User-ID header identifies callers.
	JWTSecret string `env:"JWT_SECRET" envDefault:""`

	// Device capabilities
	CapabilityVibration   bool `env:"CAPABILITY_VIBRATION" envDefault:"true"`
	CapabilityGeolocation bool `env:"CAPABILITY_GEOLOCATION" envDefault:"true"`

	// Emergency countdown
	CountdownSeconds   int           `env:"EMERGENCY_COUNTDOWN_SECONDS" envDefault:"5"`
	TickInterval       time.Duration `env:"EMERGENCY_TICK_INTERVAL" envDefault:"1s"`
	AlertTimeout       time.Duration `env:"EMERGENCY_ALERT_TIMEOUT" envDefault:"10s"`
	SessionSweepPeriod time.Duration `env:"EMERGENCY_SESSION_SWEEP" envDefault:"5m"`

	// Location summary cache
	SummaryCacheTTL time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"10m"`

	// Alert notification webhook; empty disables the webhook sender.
	AlertWebhookURL string `env:"ALERT_WEBHOOK_URL" envDefault:""`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load accessible-journeys config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and required fields.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return errors.New("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return errors.New("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must be positive, got rps=%v burst=%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.CountdownSeconds < 1 || c.CountdownSeconds > 60 {
		return fmt.Errorf("EMERGENCY_COUNTDOWN_SECONDS must be between 1 and 60, got %d", c.CountdownSeconds)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("EMERGENCY_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.AlertTimeout <= 0 {
		return fmt.Errorf("EMERGENCY_ALERT_TIMEOUT must be positive, got %s", c.AlertTimeout)
	}
	if c.SummaryCacheTTL < 0 {
		return fmt.Errorf("SUMMARY_CACHE_TTL must not be negative, got %s", c.SummaryCacheTTL)
	}
	return nil
}
