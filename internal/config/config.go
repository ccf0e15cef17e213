package config

import (
	"fmt"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Identity modes.
const (
	IdentityRemote = "remote"
	IdentityLocal  = "local"
)

// Config holds all configuration for the storefront API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Document store
	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass     string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL      string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	// MongoDB
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"storefront"`

	// Redis
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CartTTL       time.Duration `env:"CART_TTL" envDefault:"720h"`

	// Kafka. No brokers disables event publishing and the notification consumer.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Elasticsearch. No addresses keeps search on the in-process scan.
	ElasticsearchAddresses   []string `env:"ELASTICSEARCH_ADDRESSES" envSeparator:","`
	ElasticsearchIndexPrefix string   `env:"ELASTICSEARCH_INDEX_PREFIX" envDefault:"storefront"`
	SearchCollections        []string `env:"SEARCH_INDEXED_COLLECTIONS" envDefault:"products,categories" envSeparator:","`

	// Identity
	IdentityMode       string   `env:"IDENTITY_MODE" envDefault:"local"`
	IdentityBaseURL    string   `env:"IDENTITY_BASE_URL" envDefault:"https://identitytoolkit.googleapis.com"`
	IdentityAPIKey     string   `env:"IDENTITY_API_KEY"`
	IdentityRequestURI string   `env:"IDENTITY_REQUEST_URI" envDefault:"http://localhost"`
	BcryptCost         int      `env:"BCRYPT_COST" envDefault:"10"`
	AdminEmails        []string `env:"ADMIN_EMAILS" envSeparator:","`

	// JWT
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Rate limiting, per client IP.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CacheMaxAge    int     `env:"CATALOG_CACHE_MAX_AGE" envDefault:"30"`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StoreDriver {
	case DriverMemory, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, postgres, mongo; got %q", c.StoreDriver)
	}
	switch c.IdentityMode {
	case IdentityLocal:
	case IdentityRemote:
		if c.IdentityAPIKey == "" {
			return fmt.Errorf("IDENTITY_API_KEY is required when IDENTITY_MODE is remote")
		}
	default:
		return fmt.Errorf("IDENTITY_MODE must be remote or local; got %q", c.IdentityMode)
	}
	for _, coll := range c.SearchCollections {
		if !domain.IsCollection(coll) {
			return fmt.Errorf("SEARCH_INDEXED_COLLECTIONS: unknown collection %q", coll)
		}
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}

	// Outside development the JWT secret must be set explicitly and be strong.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
		if c.StoreDriver == DriverMemory {
			return fmt.Errorf("STORE_DRIVER=memory is only allowed in development")
		}
	}
	return nil
}

func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

func (c *Config) Mongo() database.MongoConfig {
	return database.MongoConfig{URI: c.MongoURI, Database: c.MongoDatabase, ConnectTimeout: 10 * time.Second}
}

func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}
