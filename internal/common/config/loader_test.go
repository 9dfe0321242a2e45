package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  store: memory
database:
  redis:
    address: localhost:6379
workers:
  transition-candidate-stage:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Pipeline.Store)
	assert.Equal(t, 5000, cfg.Pipeline.StoreTimeout)
	assert.Equal(t, "candidate-onboarding", cfg.Pipeline.OnboardingProcessID)
	assert.Equal(t, "pipeline:events:dead-letter", cfg.Pipeline.DeadLetterKey)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "json", cfg.Logging.Format)

	w := GetWorkerConfig(cfg, "transition-candidate-stage")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("PIPELINE_TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, `
database:
  postgres:
    host: db
    database: recruiting
    user: pipeline
    password: ${PIPELINE_TEST_PG_PASSWORD}
  redis:
    address: redis:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "dbname=recruiting")
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "sslmode=disable")
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "postgres store without host",
			body:    "database:\n  redis:\n    address: r:6379\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "unknown store",
			body:    "pipeline:\n  store: sqlite\ndatabase:\n  redis:\n    address: r:6379\n",
			wantErr: "pipeline.store must be postgres or memory",
		},
		{
			name:    "missing redis",
			body:    "pipeline:\n  store: memory\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "camunda enabled without broker",
			body:    "pipeline:\n  store: memory\ncamunda:\n  enabled: true\ndatabase:\n  redis:\n    address: r:6379\n",
			wantErr: "camunda.broker_address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"lock-offer": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "lock-offer"))
	assert.True(t, IsWorkerEnabled(cfg, "send-offer"))
}

func TestElasticsearchConfig_Enabled(t *testing.T) {
	assert.False(t, ElasticsearchConfig{}.Enabled())
	assert.True(t, ElasticsearchConfig{Addresses: []string{"http://es:9200"}}.Enabled())
	assert.Equal(t, "http://es:9200", ElasticsearchConfig{Addresses: []string{"http://es:9200"}}.GetURL())
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	t.Setenv("DB_HOST", "postgres")
	t.Setenv("DB_USER", "pipeline")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("ZEEBE_ADDRESS", "zeebe:26500")

	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Postgres.Host)
	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "configs/stage-graph.yaml", cfg.Pipeline.StageGraphPath)
	assert.Len(t, cfg.Workers, 11)
	assert.Equal(t, 3, GetWorkerConfig(cfg, "send-offer").MaxRetries)
}
