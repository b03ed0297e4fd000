package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bloodledger/internal/donation/models"
)

// Backend selects the instance-storage implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Config captures everything the ledger host needs to wire a registry.
type Config struct {
	Backend   Backend
	Redis     RedisConfig
	Postgres  PostgresConfig
	Kafka     KafkaConfig
	Retention models.RetentionPolicy
	Approval  ApprovalConfig
	OpsAddr   string
	LogLevel  string
	LogFormat string
}

type RedisConfig struct {
	URL          string
	Key          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig enables audit streaming when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	Partitions    int32
	ConsumerGroup string
}

// ApprovalConfig holds the shared key approval tokens are signed with.
type ApprovalConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	TTL        time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Backend: Backend(getEnv("LEDGER_BACKEND", string(BackendMemory))),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Key:          getEnv("REDIS_LEDGER_KEY", "bloodledger:instance"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:    getEnv("AUDIT_TOPIC", "bloodledger.audit"),
			Partitions:    3,
			ConsumerGroup: getEnv("AUDIT_CONSUMER_GROUP", "bloodledger-audit-materializer"),
		},
		Retention: models.DefaultRetention(),
		Approval: ApprovalConfig{
			// Development default; override in any shared environment.
			SigningKey: getEnv("APPROVAL_SIGNING_KEY", "dev-approval-key-change-me"),
			Issuer:     getEnv("APPROVAL_ISSUER", "bloodledger"),
			Audience:   getEnv("APPROVAL_AUDIENCE", "bloodledger-registry"),
			TTL:        5 * time.Minute,
		},
		OpsAddr:   getEnv("OPS_ADDR", ":9090"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Config{}, err
	}
	threshold, err := intEnv("RETENTION_THRESHOLD_LEDGERS", int(cfg.Retention.Threshold))
	if err != nil {
		return Config{}, err
	}
	extendTo, err := intEnv("RETENTION_EXTEND_LEDGERS", int(cfg.Retention.ExtendTo))
	if err != nil {
		return Config{}, err
	}
	cfg.Retention.Threshold = uint32(threshold)
	cfg.Retention.ExtendTo = uint32(extendTo)
	if cfg.Retention.LedgerInterval, err = durationEnv("LEDGER_INTERVAL", cfg.Retention.LedgerInterval); err != nil {
		return Config{}, err
	}
	if cfg.Approval.TTL, err = durationEnv("APPROVAL_TTL", cfg.Approval.TTL); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot be wired.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Backend)
	}
	if c.Retention.ExtendTo == 0 {
		return fmt.Errorf("RETENTION_EXTEND_LEDGERS must be positive")
	}
	if c.Retention.Threshold > c.Retention.ExtendTo {
		return fmt.Errorf("retention threshold %d exceeds extend-to %d", c.Retention.Threshold, c.Retention.ExtendTo)
	}
	if c.Retention.LedgerInterval < time.Second {
		return fmt.Errorf("LEDGER_INTERVAL must be at least 1s")
	}
	if c.Approval.SigningKey == "" {
		return fmt.Errorf("APPROVAL_SIGNING_KEY must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: expected non-negative integer, got %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
