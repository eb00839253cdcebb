package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BAAS_URL", "https://project.example.co/")
	t.Setenv("BAAS_ANON_KEY", "anon")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("HTTP_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://project.example.co", cfg.BaaS.URL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendREST, cfg.Store.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.BaaS.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Identity.CacheTTL)
	assert.Equal(t, "prime.events", cfg.Kafka.Topic)
}

func TestValidateReportsAllMissing(t *testing.T) {
	cfg := &Config{Store: Store{Backend: BackendPostgres}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAAS_URL")
	assert.Contains(t, err.Error(), "BAAS_ANON_KEY")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{BaaS: BaaS{URL: "u", AnonKey: "k"}, Store: Store{Backend: "sqlite"}}
	assert.ErrorContains(t, cfg.Validate(), "unknown STORE_BACKEND")
}
