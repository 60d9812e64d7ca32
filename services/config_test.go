package services

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("GEMINI_API_KEY", "test-key")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "test-key", config.AI.GeminiAPIKey)
	assert.Equal(t, "", config.WebSocket.AllowedOrigins)
	assert.Equal(t, "uploads", config.Storage.UploadDir)
	assert.Equal(t, "audio_cache", config.Storage.AudioCacheDir)
	assert.True(t, config.Database.Seed)
	assert.Equal(t, "silent", config.Database.LogLevel)
	assert.Equal(t, 10, config.Database.MaxIdleConns)
	assert.Equal(t, 100, config.Database.MaxOpenConns)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WEBSOCKET_ALLOWED_ORIGINS", "http://localhost:5173")
	t.Setenv("STORAGE_UPLOAD_DIR", "/var/data/uploads")
	t.Setenv("DATABASE_SEED", "false")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, "http://localhost:5173", config.WebSocket.AllowedOrigins)
	assert.Equal(t, "/var/data/uploads", config.Storage.UploadDir)
	assert.False(t, config.Database.Seed)
}

func TestLoadConfigRequiresGeminiKey(t *testing.T) {
	viper.Reset()
	t.Setenv("GEMINI_API_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}
