package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDir_EnvOverride(t *testing.T) {
	t.Setenv("SMELT_CONFIG_DIR", "/custom/smelt")

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/smelt", dir)

	logs, err := LogsDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/smelt", "logs"), logs)
}

func TestLoadSettings_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("SMELT_CONFIG_DIR", t.TempDir())

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Empty(t, s.DefaultBaseImage)
	assert.True(t, (&s.Logging).FileEnabledOrDefault())
}

func TestLoadSettings_ParsesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SMELT_CONFIG_DIR", dir)

	content := `
default_base_image: debian:bookworm-slim
logging:
  file_enabled: false
  max_size_mb: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(content), 0o644))

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "debian:bookworm-slim", s.DefaultBaseImage)
	assert.False(t, (&s.Logging).FileEnabledOrDefault())
	assert.Equal(t, 10, s.Logging.MaxSizeMB)
}
