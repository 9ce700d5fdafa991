package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"FLIGHTSURETY_ADDR", "REDIS_URL", "DATABASE_URL", "KAFKA_BROKERS", "AUTHORIZED_CLIENTS", "REDIS_POOL_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Postgres.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.AuthorizedClients)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, "flightsurety:", cfg.Notify.ChannelPrefix)
	assert.Equal(t, "flightsurety:", cfg.Redis.KeyPrefix)
}

func TestFromEnv_Lists(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("AUTHORIZED_CLIENTS", "0xaaaa ,0xbbbb")
	t.Setenv("REDIS_POOL_SIZE", "nope")

	cfg := FromEnv()

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"0xaaaa", "0xbbbb"}, cfg.AuthorizedClients)
	assert.Equal(t, 10, cfg.Redis.PoolSize, "invalid numbers fall back to the default")
}

func TestFromEnv_RateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_DISABLED", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	cfg := FromEnv()
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Equal(t, 600, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)

	t.Setenv("RATE_LIMIT_DISABLED", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	cfg = FromEnv()
	assert.True(t, cfg.RateLimit.Disabled)
	assert.Equal(t, 30, cfg.RateLimit.Limit)
}

func TestFromEnv_Streams(t *testing.T) {
	t.Setenv("NATS_URL", "")
	t.Setenv("NATS_SUBJECT_PREFIX", "")
	t.Setenv("NOTIFY_STREAM_BUFFER", "")
	cfg := FromEnv()
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "flightsurety.", cfg.NATS.SubjectPrefix)
	assert.Equal(t, 64, cfg.Notify.StreamBuffer)

	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("NOTIFY_STREAM_BUFFER", "8")
	cfg = FromEnv()
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, 8, cfg.Notify.StreamBuffer)
}

func TestFromEnv_RedisKeyPrefixIsIndependent(t *testing.T) {
	t.Setenv("NOTIFY_CHANNEL_PREFIX", "events:")
	t.Setenv("REDIS_KEY_PREFIX", "ledger-a:")
	cfg := FromEnv()
	assert.Equal(t, "events:", cfg.Notify.ChannelPrefix)
	assert.Equal(t, "ledger-a:", cfg.Redis.KeyPrefix)
}
