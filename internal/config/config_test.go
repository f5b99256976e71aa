package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"VITALITO_API_BASE_URL", "VITALITO_PORT", "VITALITO_STORAGE_BACKEND",
		"VITALITO_STORAGE_PATH", "VITALITO_GCP_PROJECT", "VITALITO_CAMERA",
		"VITALITO_CAMERA_FRONT", "VITALITO_CAMERA_BACK", "VITALITO_VISION_BACKEND",
		"GOOGLE_API_KEY", "VITALITO_MODEL_NAME", "VITALITO_TTS_VOICE",
		"VITALITO_WIDE_COLUMNS", "VITALITO_LOG_FILE", "VITALITO_DEBUG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, StorageSQLite, cfg.StorageBackend)
	assert.Equal(t, CameraSynthetic, cfg.Camera)
	assert.Equal(t, VisionHTTP, cfg.Vision)
	assert.Equal(t, "es-ES-ElviraNeural", cfg.TTSVoice)
	assert.Equal(t, 100, cfg.WideColumns)
	assert.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITALITO_API_BASE_URL", "http://api.local:9000/")
	t.Setenv("VITALITO_STORAGE_BACKEND", "memory")
	t.Setenv("VITALITO_CAMERA", "ffmpeg")
	t.Setenv("VITALITO_WIDE_COLUMNS", "80")
	t.Setenv("VITALITO_DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.local:9000", cfg.APIBaseURL)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, CameraFFmpeg, cfg.Camera)
	assert.Equal(t, 80, cfg.WideColumns)
	assert.True(t, cfg.Debug)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("firestore needs a project", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VITALITO_STORAGE_BACKEND", "firestore")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("gemini needs an api key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VITALITO_VISION_BACKEND", "gemini")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown camera", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VITALITO_CAMERA", "webgl")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("non numeric width", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VITALITO_WIDE_COLUMNS", "wide")
		_, err := Load()
		assert.Error(t, err)
	})
}
