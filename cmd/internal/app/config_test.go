package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenWindow)
	assert.Equal(t, 32, cfg.TokenLength)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, "disk", cfg.AvatarBackend)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PASSAGE_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("PASSAGE_LOG_LEVEL", "debug")
	t.Setenv("PASSAGE_TOKEN_WINDOW", "48h")
	t.Setenv("PASSAGE_DB_MAX_CONNS", "25")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 48*time.Hour, cfg.TokenWindow)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("bad log format", func(t *testing.T) {
		t.Setenv("PASSAGE_LOG_FORMAT", "xml")
		_, err := LoadConfig("")
		assert.Error(t, err)
	})

	t.Run("s3 backend requires bucket and region", func(t *testing.T) {
		t.Setenv("PASSAGE_AVATAR_BACKEND", "s3")
		_, err := LoadConfig("")
		assert.Error(t, err)

		t.Setenv("PASSAGE_S3_BUCKET", "avatars")
		t.Setenv("PASSAGE_S3_REGION", "eu-central-1")
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "avatars", cfg.S3Config().Bucket)
	})

	t.Run("unknown avatar backend", func(t *testing.T) {
		t.Setenv("PASSAGE_AVATAR_BACKEND", "tape")
		_, err := LoadConfig("")
		assert.Error(t, err)
	})
}

func TestSessionConfigMapping(t *testing.T) {
	t.Setenv("PASSAGE_TOKEN_WINDOW", "24h")
	t.Setenv("PASSAGE_SWEEP_STALE_AFTER", "24h")
	t.Setenv("PASSAGE_SWEEP_INTERVAL", "10m")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	sc := cfg.SessionConfig()
	assert.Equal(t, 24*time.Hour, sc.Window)
	assert.Equal(t, 24*time.Hour, sc.SweepStaleAfter)
	assert.Equal(t, 10*time.Minute, sc.SweepInterval)
}
