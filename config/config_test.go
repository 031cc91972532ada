package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, ":8082", cfg.Server.GRPCPort)
	assert.True(t, cfg.Postgres.AutoMigrate)
	assert.Equal(t, "orders.events", cfg.Kafka.Topic)
	assert.EqualValues(t, 10, cfg.Catalog.LowStockThreshold)
	assert.Equal(t, 30*24*time.Hour, cfg.Catalog.RecentSalesWindow())
	assert.Equal(t, 5*time.Minute, cfg.Catalog.SearchCacheTTL())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CATALOG_LOW_STOCK_THRESHOLD", "3")
	t.Setenv("POSTGRES_AUTO_MIGRATE", "false")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("APP_ENV", "development")

	cfg := LoadEnv()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.EqualValues(t, 3, cfg.Catalog.LowStockThreshold)
	assert.False(t, cfg.Postgres.AutoMigrate)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.True(t, cfg.Server.IsDevelopment())
}
