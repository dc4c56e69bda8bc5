// Package logging builds the per-component logrus loggers used across br0wse.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/br0wse/pkg/paths"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	activeConfig Config
	fileSink     *os.File
)

// Configure installs cfg for every logger, including ones already created.
// It is called once the configuration file has been loaded.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	activeConfig = cfg
	if fileSink != nil {
		fileSink.Close()
		fileSink = nil
	}
	for component, entry := range loggers {
		apply(entry.Logger, component)
	}
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// Loggers are cached per component.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	apply(logger, component)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// apply configures logger from activeConfig and the environment. Callers hold loggersMu.
func apply(logger *logrus.Logger, component string) {
	cfg := activeConfig

	levelStr := "info"
	if env := os.Getenv("BR0WSE_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	if os.Getenv("BR0WSE_DEBUG") == "1" && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	logger.SetReportCaller(os.Getenv("BR0WSE_LOG_CALLER") == "true" || cfg.ReportCaller)

	switch cfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(NewTextFormatter(FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}))
	default:
		logger.SetFormatter(NewTextFormatter(cfg.Format))
	}

	var writers []io.Writer
	if cfg.File.Enabled {
		if f := openFileSink(logger, cfg.File.Path); f != nil {
			writers = append(writers, f)
		}
	}
	if shouldLogToStderr(cfg.Format.StructuredToStderr, level) {
		writers = append(writers, GetGlobalOutput())
	}

	switch len(writers) {
	case 0:
		// Interactive terminal in auto mode: stay quiet so the TUI is not corrupted.
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
}

func openFileSink(logger *logrus.Logger, path string) io.Writer {
	if fileSink != nil {
		return fileSink
	}
	if path == "" {
		path = filepath.Join(paths.LogDir(), "br0wse.log")
	}
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Warnf("Failed to create log directory %s: %v", filepath.Dir(path), err)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.Warnf("Failed to open log file %s: %v", path, err)
		return nil
	}
	fileSink = f
	return f
}

// shouldLogToStderr resolves the structured_to_stderr mode. "auto" logs to
// stderr only when debugging or when stderr is not an interactive terminal.
func shouldLogToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	isDebug := os.Getenv("BR0WSE_DEBUG") == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
