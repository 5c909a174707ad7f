// Package logging builds the human-readable log stream shared by every
// command: a pterm logger writing to stderr and, when a file path is
// configured, to a size-rotated log file as well.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "text",
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 30,
	}
}

// New returns a logger for cfg together with a closer for the rotating file
// writer. The closer is nil when no file is configured.
func New(cfg Config) (*pterm.Logger, io.Closer) {
	writer, closer := buildWriter(cfg, os.Stderr)
	return newLogger(cfg, writer), closer
}

// NewWithWriter is like New but logs to w instead of stderr.
func NewWithWriter(cfg Config, w io.Writer) *pterm.Logger {
	cfg.File = ""
	writer, _ := buildWriter(cfg, w)
	return newLogger(cfg, writer)
}

// Discard returns a logger that drops every message.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(io.Discard).WithLevel(pterm.LogLevelDisabled)
}

func newLogger(cfg Config, w io.Writer) *pterm.Logger {
	logger := pterm.DefaultLogger.
		WithWriter(w).
		WithLevel(ParseLevel(cfg.Level)).
		WithTime(true)
	if strings.EqualFold(cfg.Format, "json") {
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	}
	return logger
}

func buildWriter(cfg Config, console io.Writer) (io.Writer, io.Closer) {
	if cfg.File == "" {
		return console, nil
	}

	defaults := DefaultConfig()
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaults.MaxSizeMB
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaults.MaxBackups
	}
	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = defaults.MaxAgeDays
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	}
	return io.MultiWriter(console, lj), lj
}

// ParseLevel converts a level name to a pterm.LogLevel, defaulting to info.
func ParseLevel(s string) pterm.LogLevel {
	switch strings.ToLower(s) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "off", "disabled":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// ValidLevel reports whether s is a recognized level name.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "trace", "debug", "info", "warn", "warning", "error", "off", "disabled":
		return true
	}
	return false
}

// String returns a one-line summary of the config.
func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.File != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB", c.File, c.MaxSizeMB)
	}
	return s
}
