// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "app:\n  name: activities\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, GetDuration(cfg.Server.ShutdownTimeout))
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "activities", cfg.Tracing.ServiceName)
	assert.False(t, cfg.Enrollment.EnforceCapacity)
	assert.Empty(t, cfg.Enrollment.SeedPath)

	n := cfg.Notifications
	assert.Equal(t, 2000, n.Timeout)
	assert.Equal(t, 256, n.QueueSize)
	assert.Equal(t, "enrollment:events", n.Redis.EventsKey)
	assert.Equal(t, "enrollment:changes", n.Redis.Channel)
	assert.Equal(t, int64(1000), n.Redis.MaxLen)
	assert.Equal(t, "disable", n.Postgres.SSLMode)
	assert.False(t, n.Redis.Enabled || n.Postgres.Enabled || n.SES.Enabled || n.SNS.Enabled)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "cache:6379")
	path := writeFile(t, t.TempDir(), "config.yaml", `
notifications:
  redis:
    enabled: true
    address: "${TEST_REDIS_ADDR}"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.Notifications.Redis.Address)
}

func TestLoadFromFile_EnvOverridesKnownKeys(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("ENROLLMENT_ENFORCE_CAPACITY", "true")
	path := writeFile(t, t.TempDir(), "config.yaml", `
server:
  address: ":8000"
enrollment:
  enforce_capacity: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.True(t, cfg.Enrollment.EnforceCapacity)
}

func TestLoadFromFile_SecretsFromEnvironment(t *testing.T) {
	t.Setenv("DB_USER", "registrar")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("AWS_REGION", "eu-west-1")
	path := writeFile(t, t.TempDir(), "config.yaml", `
notifications:
  postgres:
    enabled: true
    host: db
    database: mergington
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	pg := cfg.Notifications.Postgres
	assert.Equal(t, "registrar", pg.User)
	assert.Equal(t, "host=db port=5432 user=registrar password=s3cret dbname=mergington sslmode=disable", pg.GetDSN())
	assert.Equal(t, "eu-west-1", cfg.Notifications.SES.Region)
	assert.Equal(t, "eu-west-1", cfg.Notifications.SNS.Region)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "redis without address",
			yaml:    "notifications:\n  redis:\n    enabled: true\n",
			wantErr: "notifications.redis.address is required",
		},
		{
			name:    "postgres without host",
			yaml:    "notifications:\n  postgres:\n    enabled: true\n",
			wantErr: "notifications.postgres.host is required",
		},
		{
			name:    "ses without sender",
			yaml:    "notifications:\n  ses:\n    enabled: true\n",
			wantErr: "notifications.ses.from_email is required",
		},
		{
			name:    "sns without topic",
			yaml:    "notifications:\n  sns:\n    enabled: true\n",
			wantErr: "notifications.sns.topic_arn is required",
		},
		{
			name:    "negative queue size",
			yaml:    "notifications:\n  queue_size: -1\n",
			wantErr: "notifications.queue_size must not be negative",
		},
		{
			name:    "relative metrics path",
			yaml:    "metrics:\n  path: metrics\n",
			wantErr: "metrics.path must start with /",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.yaml)
			_, err := LoadFromFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MergesEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "logging:\n  level: info\nenrollment:\n  enforce_capacity: false\n")
	writeFile(t, dir, "config.staging.yaml", "enrollment:\n  enforce_capacity: true\n")
	t.Setenv("APP_ENVIRONMENT", "staging")

	cfg, err := load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Enrollment.EnforceCapacity)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "staging", cfg.App.Environment)
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "")

	cfg, err := load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, "development", cfg.App.Environment)
}
