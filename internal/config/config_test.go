package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.GracePeriod)
	assert.Equal(t, 6, cfg.RoomIDLength)
	assert.Equal(t, 7, cfg.HandSize)
	assert.Equal(t, 5*time.Second, cfg.ChatRateWindow)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := "port: 9090\ngrace_period: 2s\nhand_size: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(yaml), 0o644))
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("SWG_HAND_SIZE", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.GracePeriod)
	assert.Equal(t, 9, cfg.HandSize)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("SWG_ROOM_ID_LENGTH", "2")

	_, err := Load()
	assert.ErrorContains(t, err, "room_id_length")
}
