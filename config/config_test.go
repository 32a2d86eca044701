package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:12393/client-ws", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.ReconnectInterval)
	assert.Equal(t, "sox", cfg.PlayerCommand)
	assert.Equal(t, 16000, cfg.SampleRate)
	assert.Equal(t, 0.015, cfg.SpeechThreshold)
	assert.Equal(t, 0.008, cfg.SilenceThreshold)
	assert.Equal(t, 12393, cfg.Port)
	assert.Equal(t, 3, cfg.MergeMaxSentences)
	assert.True(t, cfg.ProgressiveMerge)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_URL", "ws://pet.example:9000/client-ws")
	t.Setenv("RECONNECT_INTERVAL", "7")
	t.Setenv("PORT", "9000")
	t.Setenv("MERGE_MAX_SENTENCES", "5")
	t.Setenv("PROGRESSIVE_MERGE", "false")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ws://pet.example:9000/client-ws", cfg.ServerURL)
	assert.Equal(t, 7*time.Second, cfg.ReconnectInterval)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5, cfg.MergeMaxSentences)
	assert.False(t, cfg.ProgressiveMerge)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("Zero Reconnect Interval", func(t *testing.T) {
		t.Setenv("RECONNECT_INTERVAL", "0")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("Bad Port", func(t *testing.T) {
		t.Setenv("PORT", "not-a-port")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("Inverted VAD Thresholds", func(t *testing.T) {
		t.Setenv("VAD_SPEECH_THRESHOLD", "0.01")
		t.Setenv("VAD_SILENCE_THRESHOLD", "0.02")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("Bad Merge Size", func(t *testing.T) {
		t.Setenv("MERGE_MAX_SENTENCES", "0")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
