package jukecfg

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"JUKE_FB_SOCKET", "JUKE_AUDIO_SOCKET", "JUKE_METRICS_ADDR", "JUKE_LOG_LEVEL"} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/run/juke/fb.sock", cfg.FbSocket)
	assert.Equal(t, "/run/juke/audio.sock", cfg.AudioSocket)
	assert.Equal(t, "", cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("JUKE_FB_SOCKET", "/tmp/custom-fb.sock")
	t.Setenv("JUKE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-fb.sock", cfg.FbSocket)
	assert.Equal(t, "debug", cfg.LogLevel)
}
