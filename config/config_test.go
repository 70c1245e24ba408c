package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTL)
	assert.Equal(t, EventsNone, cfg.EventsBackend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.SeedDemoUser)
	assert.False(t, cfg.CloudWatchEnabled)
	assert.Equal(t, "PharmacyStorefront", cfg.CloudWatchNamespace)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("CART_TTL", "1h")
	t.Setenv("CLOUDWATCH_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.CartTTL)
	assert.True(t, cfg.CloudWatchEnabled)
}

func TestLoadRejectsBadEventsBackend(t *testing.T) {
	t.Setenv("EVENTS_BACKEND", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresTopicForSNS(t *testing.T) {
	t.Setenv("EVENTS_BACKEND", "sns")
	_, err := Load()
	assert.ErrorContains(t, err, "SNS_ORDER_EVENTS_TOPIC_ARN")

	t.Setenv("SNS_ORDER_EVENTS_TOPIC_ARN", "arn:aws:sns:us-east-1:000000000000:order-events")
	_, err = Load()
	assert.NoError(t, err)
}
