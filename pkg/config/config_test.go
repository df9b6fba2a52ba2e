package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, "csv", c.Store.Backend)
	assert.Equal(t, "local", c.Store.Lock)
	assert.Equal(t, "data/data.csv", c.Store.CSVPath)
	assert.Equal(t, 10*time.Second, c.Store.LockWait)
	assert.Equal(t, "komoditas-model-eval", c.Evaluation.Job)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: prod
server:
  port: 9090
model:
  path: /srv/model.yaml
  features: [price_lag1, price_lag2]
  strict_features: true
store:
  backend: sqlite
  sqlite_path: /tmp/obs.db
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "/srv/model.yaml", c.Model.Path)
	assert.Equal(t, []string{"price_lag1", "price_lag2"}, c.Model.Features)
	assert.True(t, c.Model.StrictFeatures)
	assert.Equal(t, "sqlite", c.Store.Backend)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown backend":       "store:\n  backend: parquet\n",
		"unknown lock":          "store:\n  lock: etcd\n",
		"redis lock w/o redis":  "store:\n  lock: redis\n",
		"kafka without brokers": "kafka:\n  enabled: true\n",
		"retrain without token": "retrain:\n  enabled: true\n  repo: org/repo\n",
		"collector w/o kafka":   "logging:\n  collector:\n    enabled: true\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	env := map[string]string{
		"MODEL_PATH":       "/models/m.json",
		"STORE_BACKEND":    "clickhouse",
		"KAFKA_BROKERS":    "k1:9092,k2:9092",
		"REDIS_ADDR":       "cache:6380",
		"PUSHGATEWAY_ADDR": "pg:9091",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "/models/m.json", c.Model.Path)
	assert.Equal(t, "clickhouse", c.Store.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, "cache", c.Redis.Host)
	assert.Equal(t, 6380, c.Redis.Port)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "pg:9091", c.Evaluation.PushgatewayAddr)
	require.NoError(t, c.Validate())
}

func TestLoadWithEnvToleratesMissingFile(t *testing.T) {
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: staging\nstore:\n  csv_path: /data/x.csv\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", c.Environment)
	assert.Equal(t, "/data/x.csv", c.Store.CSVPath)
}
