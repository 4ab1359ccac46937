// Package logging builds the charmbracelet loggers used by every component.
// When a log file is configured the output is rotated with lumberjack, which
// is always the case while the terminal UI owns stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Component prefixes.
const (
	PrefixNet       = "arena-net"
	PrefixTransport = "arena-ws"
	PrefixDev       = "arena-dev"
	PrefixSSH       = "arena-ssh"
	PrefixClient    = "arena"
)

// Config controls log level and destination.
type Config struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfig logs at info to stderr.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
}

// New creates the root logger. The returned closer flushes the rotating file
// and must be closed on shutdown; it is a no-op for stderr.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: %w", err)
		}
		level = parsed
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out = lj
		closer = lj
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          PrefixClient,
	})
	return logger, closer, nil
}

// Discard returns a logger that writes nothing. Components fall back to it
// when no logger is configured.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Or returns l, or a discarding logger when l is nil.
func Or(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
