package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()

	// Chdir keeps a developer's .env out of the test
	// (equivalent of t.Chdir, which needs Go 1.24)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for _, key := range []string{
		"DB_CONN_STR", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
		"HTTP_PORT", "GRPC_PORT", "REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT", "CORS_ORIGINS",
		"JWT_SECRET", "JWT_ISSUER", "JWT_TTL", "API_KEY_SECRET",
		"LOG_LEVEL", "LOG_PRETTY",
		"SNAPSHOT_TIMEZONE", "SCHEDULER_ENABLED", "SNAPSHOT_CRON", "API_KEY_EXPIRY_CRON",
		"PRICE_RETENTION_DAYS", "PRICE_PURGE_CRON", "JOB_TIMEOUT",
		"ADMIN_EMAIL", "ADMIN_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("API_KEY_SECRET", "box-secret")
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=assetmanager sslmode=disable", cfg.DBConnStr)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, ":9090", cfg.GRPCAddr())
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0 5 0 * * *", cfg.SnapshotCron)
	assert.Equal(t, "@hourly", cfg.APIKeyExpiryCron)
	assert.Equal(t, 0, cfg.PriceRetentionDays)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_Overrides(t *testing.T) {
	clearConfigEnv(t)
	setRequired(t)
	t.Setenv("DB_CONN_STR", "postgres://db/assets")
	t.Setenv("HTTP_PORT", "8000")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("SNAPSHOT_TIMEZONE", "Asia/Seoul")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PRICE_RETENTION_DAYS", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/assets", cfg.DBConnStr)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 90, cfg.PriceRetentionDays)
}

func TestLoad_Validation(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_PORT", "abc")
	t.Setenv("SNAPSHOT_TIMEZONE", "Mars/Olympus")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")

	_, err := Load()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "JWT_SECRET is required")
	assert.Contains(t, msg, "API_KEY_SECRET is required")
	assert.Contains(t, msg, "HTTP_PORT must be an integer")
	assert.Contains(t, msg, "SNAPSHOT_TIMEZONE")
	assert.Contains(t, msg, "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
}

func TestValidate_PortClash(t *testing.T) {
	cfg := &Config{
		JWTSecret:        "s",
		APIKeySecret:     "s",
		HTTPPort:         9000,
		GRPCPort:         9000,
		JWTTTL:           time.Hour,
		SnapshotTimezone: "UTC",
	}
	assert.ErrorContains(t, cfg.Validate(), "must differ")
}
