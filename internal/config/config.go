package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/anmar534/loctah-sub000/internal/offer"
	pkgconfig "github.com/anmar534/loctah-sub000/pkg/config"
	"github.com/anmar534/loctah-sub000/pkg/database"
	"github.com/anmar534/loctah-sub000/pkg/httpclient"
	"github.com/anmar534/loctah-sub000/pkg/tracing"
)

// ServiceName identifies the catalog service in logs, metrics, traces and
// event envelopes.
const ServiceName = "catalog-service"

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the catalog service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int           `env:"CATALOG_HTTP_PORT" envDefault:"8010"`
	RequestTimeout     time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	PublicCacheMaxAge  time.Duration `env:"PUBLIC_CACHE_MAX_AGE" envDefault:"60s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ecommerce"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"ecommerce_secret"`
	PostgresDB   string `env:"CATALOG_DB_NAME" envDefault:"catalog_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis
	RedisHost        string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort        int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	CategoryCacheTTL time.Duration `env:"CATEGORY_CACHE_TTL" envDefault:"10m"`

	// Kafka
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string        `env:"KAFKA_CONSUMER_GROUP" envDefault:"catalog-service"`
	KafkaDLQPrefix     string        `env:"KAFKA_DLQ_PREFIX" envDefault:"dlq"`
	EventDedupTTL      time.Duration `env:"EVENT_DEDUP_TTL" envDefault:"24h"`

	// Product service
	ProductServiceURL     string        `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8001"`
	ProductClientTimeout  time.Duration `env:"PRODUCT_CLIENT_TIMEOUT" envDefault:"5s"`
	ProductClientRetries  int           `env:"PRODUCT_CLIENT_MAX_RETRIES" envDefault:"2"`
	BreakerFailureRatio   float64       `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests    uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`
	BreakerOpenTimeout    time.Duration `env:"CB_OPEN_TIMEOUT" envDefault:"30s"`
	BreakerResetInterval  time.Duration `env:"CB_RESET_INTERVAL" envDefault:"60s"`
	ProductLookupFallback bool          `env:"PRODUCT_LOOKUP_REMOTE_FALLBACK" envDefault:"true"`

	// JWT authentication
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`

	// Offer window policy
	OfferEnforceDuration  bool `env:"OFFER_ENFORCE_DURATION" envDefault:"true"`
	OfferMinDurationHours int  `env:"OFFER_MIN_DURATION_HOURS" envDefault:"24"`
	OfferMaxDurationDays  int  `env:"OFFER_MAX_DURATION_DAYS" envDefault:"365"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and cross-field rules. It runs as part of Load.
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
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RedisHost == "" {
		return errors.New("REDIS_HOST is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaConsumerGroup == "" {
		return errors.New("KAFKA_CONSUMER_GROUP is required")
	}
	if u, err := url.Parse(c.ProductServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PRODUCT_SERVICE_URL must be an absolute URL, got %q", c.ProductServiceURL)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.BreakerFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.OfferMinDurationHours < 0 {
		return fmt.Errorf("OFFER_MIN_DURATION_HOURS must not be negative, got %d", c.OfferMinDurationHours)
	}
	if c.OfferEnforceDuration && c.OfferMaxDurationDays*24 < c.OfferMinDurationHours {
		return fmt.Errorf("OFFER_MAX_DURATION_DAYS (%d) is shorter than OFFER_MIN_DURATION_HOURS (%d)",
			c.OfferMaxDurationDays, c.OfferMinDurationHours)
	}
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// Postgres returns the pool settings for database.NewPostgresPool.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the client settings for database.NewRedisClient.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPassword
	rc.DB = c.RedisDB
	return rc
}

// Tracing returns the exporter settings for tracing.InitTracer.
func (c *Config) Tracing() tracing.Config {
	tc := tracing.DefaultConfig(ServiceName)
	tc.Enabled = c.OTELEnabled
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Environment = c.Environment
	tc.ServiceVersion = c.ServiceVersion
	return tc
}

// ProductClient returns the outbound HTTP settings for the product service.
func (c *Config) ProductClient() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.ProductClientTimeout
	hc.MaxRetries = c.ProductClientRetries
	return hc
}

// ProductBreaker returns the circuit breaker settings for the product
// service.
func (c *Config) ProductBreaker() httpclient.CircuitBreakerConfig {
	cb := httpclient.DefaultCircuitBreakerConfig("product-service")
	cb.FailureRatio = c.BreakerFailureRatio
	cb.MinRequests = c.BreakerMinRequests
	cb.Timeout = c.BreakerOpenTimeout
	cb.Interval = c.BreakerResetInterval
	return cb
}

// OfferPolicy returns the offer window bounds enforced by the offer guard.
func (c *Config) OfferPolicy() offer.Policy {
	return offer.Policy{
		EnforceDuration: c.OfferEnforceDuration,
		MinDuration:     time.Duration(c.OfferMinDurationHours) * time.Hour,
		MaxDuration:     time.Duration(c.OfferMaxDurationDays) * 24 * time.Hour,
	}
}

// SlowQueryThreshold is the duration above which queries are logged.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
