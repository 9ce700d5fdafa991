package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string
	AdminToken    string

	// GenesisAirline is registered and funded when the ledger starts.
	GenesisAirline string
	// AuthorizedClients seeds the access gate allow-list.
	AuthorizedClients []string
	// ShardSeed seeds the shard source. It is not a secret.
	ShardSeed string

	Redis     RedisConfig
	Postgres  PostgresConfig
	Kafka     KafkaConfig
	NATS      NATSConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
}

// RedisConfig configures the access gate allow-list and the pub/sub sink.
// An empty URL selects in-memory implementations.
type RedisConfig struct {
	URL string
	// KeyPrefix namespaces the gate and rate-limit keys.
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the payout ledger. An empty URL selects the
// in-memory account ledger.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// KafkaConfig configures the notification topic. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NATSConfig configures the NATS notification sink. An empty URL disables it.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

type NotifyConfig struct {
	ChannelPrefix  string
	OutboxCapacity int
	PollInterval   time.Duration
	// StreamBuffer is the per-subscriber backlog of the /events stream.
	StreamBuffer int
}

// RateLimitConfig bounds requests per caller on the ledger routes. The
// window is shared through Redis when it is configured.
type RateLimitConfig struct {
	Disabled bool
	Limit    int
	Window   time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:              envOr("FLIGHTSURETY_ADDR", ":8080"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		JWTSigningKey:     jwtSigningKey,
		AdminToken:        envOr("ADMIN_TOKEN", "dev-admin-token"),
		GenesisAirline:    os.Getenv("GENESIS_AIRLINE"),
		AuthorizedClients: splitList(os.Getenv("AUTHORIZED_CLIENTS")),
		ShardSeed:         envOr("SHARD_SEED", "flightsurety"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			KeyPrefix:    envOr("REDIS_KEY_PREFIX", "flightsurety:"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_TOPIC", "flightsurety.notifications"),
		},
		NATS: NATSConfig{
			URL:           os.Getenv("NATS_URL"),
			SubjectPrefix: envOr("NATS_SUBJECT_PREFIX", "flightsurety."),
			MaxReconnects: envInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait: 2 * time.Second,
			Timeout:       5 * time.Second,
		},
		Notify: NotifyConfig{
			ChannelPrefix:  envOr("NOTIFY_CHANNEL_PREFIX", "flightsurety:"),
			OutboxCapacity: envInt("NOTIFY_OUTBOX_CAPACITY", 10_000),
			PollInterval:   time.Second,
			StreamBuffer:   envInt("NOTIFY_STREAM_BUFFER", 64),
		},
		RateLimit: RateLimitConfig{
			Disabled: envBool("RATE_LIMIT_DISABLED"),
			Limit:    envInt("RATE_LIMIT_PER_MINUTE", 600),
			Window:   time.Minute,
		},
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
