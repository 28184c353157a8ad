// Package logger provides the global zerolog logger for smelt.
//
// Console output goes to stderr in human-readable form; file output
// (when enabled via settings) is JSON with rotation handled by
// lumberjack. Commands never construct their own loggers.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global logger instance.
	Log zerolog.Logger

	// fileWriter is the rotating file output, nil when file logging is off.
	fileWriter *lumberjack.Logger
)

// FileConfig holds configuration for file-based logging.
// Mirrors internal/config.LoggingSettings without importing it,
// to avoid a circular dependency.
type FileConfig struct {
	Enabled    *bool
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

// IsEnabled reports whether file logging is enabled. Defaults to true.
func (c *FileConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

func (c *FileConfig) maxSizeMB() int {
	if c.MaxSizeMB <= 0 {
		return 50
	}
	return c.MaxSizeMB
}

func (c *FileConfig) maxAgeDays() int {
	if c.MaxAgeDays <= 0 {
		return 7
	}
	return c.MaxAgeDays
}

func (c *FileConfig) maxBackups() int {
	if c.MaxBackups <= 0 {
		return 3
	}
	return c.MaxBackups
}

// Init initializes console-only logging.
func Init(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	Log = zerolog.New(console).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// InitWithFile initializes logging with an additional rotating file output.
// Falls back to console-only behavior when logsDir is empty or the config
// disables file logging.
func InitWithFile(debug bool, logsDir string, cfg *FileConfig) error {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	if logsDir == "" || cfg == nil || !cfg.IsEnabled() {
		Log = zerolog.New(console).
			Level(level).
			With().
			Timestamp().
			Logger()
		return nil
	}

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	fileWriter = &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, "smelt.log"),
		MaxSize:    cfg.maxSizeMB(),
		MaxAge:     cfg.maxAgeDays(),
		MaxBackups: cfg.maxBackups(),
		LocalTime:  true,
	}

	// Console is human-readable, file is JSON.
	Log = zerolog.New(io.MultiWriter(console, fileWriter)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return nil
}

// CloseFileWriter closes the file writer if one was opened.
// Call on program shutdown.
func CloseFileWriter() error {
	if fileWriter != nil {
		err := fileWriter.Close()
		fileWriter = nil
		return err
	}
	return nil
}

// LogFilePath returns the current log file path, or "" when file logging
// is disabled.
func LogFilePath() string {
	if fileWriter != nil {
		return fileWriter.Filename
	}
	return ""
}

// Debug starts a debug-level log event.
func Debug() *zerolog.Event {
	return Log.Debug()
}

// Info starts an info-level log event.
func Info() *zerolog.Event {
	return Log.Info()
}

// Warn starts a warn-level log event.
func Warn() *zerolog.Event {
	return Log.Warn()
}

// Error starts an error-level log event.
func Error() *zerolog.Event {
	return Log.Error()
}

// Fatal starts a fatal-level log event and exits after sending it.
func Fatal() *zerolog.Event {
	return Log.Fatal()
}
