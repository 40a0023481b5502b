package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("INGESTION_SERVICE_URL", "http://ingest.local/ingest")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "s3", cfg.ObjectStore)
	assert.Equal(t, time.Hour, cfg.PresignExpiry)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigDurations(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_EXPIRES_IN", "3600")
	t.Setenv("INGESTION_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 5*time.Second, cfg.IngestionTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("INGESTION_SERVICE_URL", "http://ingest.local")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadConfigProductionNeedsDatabase(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	setRequired(t)
	t.Setenv("OBJECT_STORE", "gcs")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "OBJECT_STORE")
}

func TestLoadConfigCollectsWarnings(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("MINIO_USE_SSL", "sometimes")
	t.Setenv("PRESIGN_EXPIRY", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.DBMaxOpenConns)
	assert.False(t, cfg.MinioUseSSL)
	assert.Equal(t, time.Hour, cfg.PresignExpiry)
	assert.Equal(t, []string{
		`DB_MAX_OPEN_CONNS="many" not an int, using default 20`,
		`MINIO_USE_SSL="sometimes" not a bool, using default false`,
		`PRESIGN_EXPIRY="soon" not a duration, using default 1h0m0s`,
	}, cfg.Warnings)
}

func TestLoadConfigNoWarningsForValidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "5")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Warnings)
}
