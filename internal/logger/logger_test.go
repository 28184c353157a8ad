package logger

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_LevelFollowsDebugFlag(t *testing.T) {
	Init(false)
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	Init(true)
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())
}

func TestInitWithFile_CreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	logsDir := filepath.Join(dir, "logs")

	err := InitWithFile(false, logsDir, &FileConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseFileWriter() })

	assert.Equal(t, filepath.Join(logsDir, "smelt.log"), LogFilePath())
}

func TestInitWithFile_DisabledFallsBackToConsole(t *testing.T) {
	disabled := false
	err := InitWithFile(false, t.TempDir(), &FileConfig{Enabled: &disabled})
	require.NoError(t, err)

	assert.Empty(t, LogFilePath())
}

func TestInitWithFile_EmptyDirIsConsoleOnly(t *testing.T) {
	err := InitWithFile(true, "", nil)
	require.NoError(t, err)

	assert.Empty(t, LogFilePath())
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())
}

func TestFileConfig_Defaults(t *testing.T) {
	cfg := &FileConfig{}

	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, 50, cfg.maxSizeMB())
	assert.Equal(t, 7, cfg.maxAgeDays())
	assert.Equal(t, 3, cfg.maxBackups())
}
