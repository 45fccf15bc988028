// Package logging provides logging setup for the agent and its
// per-session worker. Logs are written to both file and stdout by
// default.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	logFileName = "agent.log"
	logFileMode = 0644
	logDirMode  = 0755
)

// Config holds logging configuration.
type Config struct {
	LogDir      string
	Debug       bool
	LogToStdout bool
}

// Setup initializes logging with both file and optional stdout output.
// Returns the configured logger and a cleanup function to close the
// log file. If the log directory or file cannot be created, logging
// falls back to stdout only.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	if err := os.MkdirAll(cfg.LogDir, logDirMode); err != nil {
		return stdoutLogger(logLevel), func() {}, nil
	}

	logPath := filepath.Join(cfg.LogDir, logFileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFileMode)
	if err != nil {
		return stdoutLogger(logLevel), func() {}, nil
	}

	// Set file permissions (ignore errors on Windows)
	os.Chmod(logPath, logFileMode)

	var writer io.Writer = logFile
	if cfg.LogToStdout {
		writer = io.MultiWriter(logFile, os.Stdout)
	}

	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cleanup := func() {
		logFile.Close()
	}

	return logger, cleanup, nil
}

// SetupWithDefaults creates a logger that writes to file and optionally
// stdout. When running under a service manager (FARVIEW_SERVICE=1),
// stdout is disabled: the manager already redirects stdout to the log
// file, and writing both produces duplicate records.
func SetupWithDefaults(logDir string, debug bool) (*slog.Logger, func(), error) {
	logToStdout := os.Getenv("FARVIEW_SERVICE") != "1"

	return Setup(Config{
		LogDir:      logDir,
		Debug:       debug,
		LogToStdout: logToStdout,
	})
}

func stdoutLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
