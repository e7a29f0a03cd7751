package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/kevin07696/settlement-service/pkg/resilience"
)

// Config holds all application configuration
type Config struct {
	Environment string `validate:"oneof=development staging production"`
	Server      ServerConfig
	Database    DatabaseConfig
	Delivery    DeliveryConfig
	Gateways    GatewayConfig
	Secrets     SecretsConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Logger      LoggerConfig
	Cron        CronConfig
}

// ServerConfig holds HTTP and gRPC listener configuration
type ServerConfig struct {
	Host           string
	HTTPPort       int     `validate:"min=1,max=65535"`
	GRPCPort       int     `validate:"min=1,max=65535,nefield=HTTPPort"`
	MetricsPort    int     `validate:"min=1,max=65535,nefield=HTTPPort,nefield=GRPCPort"`
	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"min=1"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string `validate:"required"`
	MaxConns        int32  `validate:"min=1"`
	MinConns        int32  `validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DeliveryConfig tunes the outbound webhook queue and dispatcher
type DeliveryConfig struct {
	BatchSize   int           `validate:"min=1,max=1000"`
	MaxBatches  int           `validate:"min=1"`
	Concurrency int           `validate:"min=1,max=256"`
	MaxAttempts int           `validate:"min=1,max=50"`
	Timeout     time.Duration `validate:"min=1s"`
	ClaimLease  time.Duration `validate:"gtfield=Timeout"`

	// Interval runs the dispatcher in-process on a ticker. Zero leaves
	// dispatching to the external cron trigger only.
	Interval time.Duration `validate:"min=0"`
}

// GatewayConfig lists the enabled payment gateways in detection priority order
type GatewayConfig struct {
	Enabled             []string `validate:"min=1,dive,oneof=asaas pagarme stripe"`
	AsaasAccessToken    string
	StripeSigningSecret string
}

// SecretsConfig selects where "secret://" configuration values are resolved.
// "env" means values are used literally.
type SecretsConfig struct {
	Backend      string `validate:"oneof=env local aws vault"`
	LocalPath    string `validate:"required_if=Backend local"`
	AWSRegion    string `validate:"required_if=Backend aws"`
	AWSProfile   string
	AWSEndpoint  string
	VaultAddress string `validate:"required_if=Backend vault"`
	VaultAuth    string `validate:"omitempty,oneof=token approle"`
	VaultToken   string
	VaultRoleID  string
	VaultSecret  string
	VaultMount   string
	CacheTTL     time.Duration
}

// RedisConfig enables the fee configuration cache when URL is set
type RedisConfig struct {
	URL          string
	FeeConfigTTL time.Duration
}

// KafkaConfig enables the transaction event mirror when Brokers is set
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string `validate:"oneof=debug info warn error"`
	Development bool
}

// CronConfig authenticates the external scheduler
type CronConfig struct {
	Secret string `validate:"required"`
}

var validate = validator.New()

// LoadFromEnv loads configuration from environment variables. A .env file (or
// the file named by ENV_FILE) is read first when present; real environment
// variables win over it.
func LoadFromEnv() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			HTTPPort:       getEnvAsInt("HTTP_PORT", 8080),
			GRPCPort:       getEnvAsInt("GRPC_PORT", 9090),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9091),
			RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 50),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 100),
		},
		Database: DatabaseConfig{
			URL:             DatabaseURL(),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Delivery: DeliveryConfig{
			BatchSize:   getEnvAsInt("WEBHOOK_BATCH_SIZE", 50),
			MaxBatches:  getEnvAsInt("WEBHOOK_MAX_BATCHES", 10),
			Concurrency: getEnvAsInt("WEBHOOK_CONCURRENCY", 8),
			MaxAttempts: getEnvAsInt("WEBHOOK_MAX_ATTEMPTS", 5),
			Timeout:     getEnvAsDuration("WEBHOOK_TIMEOUT", 30*time.Second),
			ClaimLease:  getEnvAsDuration("WEBHOOK_CLAIM_LEASE", 5*time.Minute),
			Interval:    getEnvAsDuration("WEBHOOK_DISPATCH_INTERVAL", 0),
		},
		Gateways: GatewayConfig{
			Enabled:             getEnvAsList("GATEWAYS_ENABLED", []string{"asaas", "pagarme", "stripe"}),
			AsaasAccessToken:    getEnv("ASAAS_WEBHOOK_TOKEN", ""),
			StripeSigningSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Secrets: SecretsConfig{
			Backend:      getEnv("SECRETS_BACKEND", "env"),
			LocalPath:    getEnv("SECRETS_LOCAL_PATH", ""),
			AWSRegion:    getEnv("AWS_REGION", ""),
			AWSProfile:   getEnv("AWS_PROFILE", ""),
			AWSEndpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultAuth:    getEnv("VAULT_AUTH_METHOD", "token"),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
			VaultRoleID:  getEnv("VAULT_ROLE_ID", ""),
			VaultSecret:  getEnv("VAULT_SECRET_ID", ""),
			VaultMount:   getEnv("VAULT_MOUNT_PATH", "secret"),
			CacheTTL:     getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			FeeConfigTTL: getEnvAsDuration("FEE_CONFIG_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_EVENTS_TOPIC", "settlement.transaction-events"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of every section
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Timeouts derives the timeout hierarchy from the delivery settings
func (c *Config) Timeouts() *resilience.TimeoutConfig {
	t := resilience.DefaultTimeoutConfig()
	t.WebhookDelivery = c.Delivery.Timeout
	t.ClaimLease = c.Delivery.ClaimLease
	return t
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseURL returns DATABASE_URL, or a URL built from the DB_* variables.
func DatabaseURL() string {
	return getEnv("DATABASE_URL", databaseURLFromParts())
}

// databaseURLFromParts builds a connection URL from DB_* variables
func databaseURLFromParts() string {
	password := getEnv("DB_PASSWORD", "")
	if password == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("DB_USER", "postgres"), password),
		Host:     fmt.Sprintf("%s:%d", getEnv("DB_HOST", "localhost"), getEnvAsInt("DB_PORT", 5432)),
		Path:     "/" + getEnv("DB_NAME", "settlement_service"),
		RawQuery: "sslmode=" + getEnv("DB_SSL_MODE", "disable"),
	}
	return u.String()
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
