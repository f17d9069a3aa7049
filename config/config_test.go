package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, "postgres", cfg.Stock.StorageDriver)
	assert.Equal(t, "strict", cfg.Stock.ReservationPolicy)
	assert.Equal(t, "overwrite", cfg.Stock.OpnameDriftPolicy)
	assert.Equal(t, 3, cfg.Stock.TxMaxRetries)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("TX_MAX_RETRIES", "7")
	t.Setenv("TX_MAX_RETRIES_BAD", "x")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("LOGGER_DISABLE_CALLER", "true")

	cfg := LoadEnv()

	assert.Equal(t, "memory", cfg.Stock.StorageDriver)
	assert.Equal(t, 7, cfg.Stock.TxMaxRetries)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Logger.DisableCaller)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "many")
	assert.Equal(t, 10, LoadEnv().Postgres.MaxOpenConns)
}
