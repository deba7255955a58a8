// ABOUTME: Log backend for the player and render engine
// ABOUTME: Subsystem loggers over stdout and a rotated log file
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem tags
const (
	SubsysRender = "RNDR"
	SubsysDevice = "DEVC"
	SubsysSource = "SRCE"
	SubsysMain   = "MAIN"
)

// recentLines is how many log lines Recent keeps
const recentLines = 200

// Config selects where logs go
type Config struct {
	// File enables a rotated log file when set
	File string

	// Level is a debug level string: "info", or "debug,RNDR=trace"
	Level string

	// MaxFiles is how many rotated files to keep
	MaxFiles int

	// Stdout receives every line when set
	Stdout io.Writer
}

// Backend hands out subsystem loggers sharing one output
type Backend struct {
	rotator      *rotator.Rotator
	stdout       io.Writer
	bknd         *slog.Backend
	defaultLevel slog.Level
	levels       map[string]slog.Level

	mu      sync.Mutex
	loggers map[string]slog.Logger
	recent  []string
}

// New creates a backend from cfg
func New(cfg Config) (*Backend, error) {
	var logRotator *rotator.Rotator
	if cfg.File != "" {
		logDir, _ := filepath.Split(cfg.File)
		if logDir != "" {
			if err := os.MkdirAll(logDir, 0700); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		var err error
		logRotator, err = rotator.New(cfg.File, 1024, false, cfg.MaxFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
	}

	b := &Backend{
		rotator:      logRotator,
		stdout:       cfg.Stdout,
		defaultLevel: slog.LevelInfo,
		levels:       make(map[string]slog.Level),
		loggers:      make(map[string]slog.Logger),
	}
	b.bknd = slog.NewBackend(b)

	if err := b.parseLevels(cfg.Level); err != nil {
		if logRotator != nil {
			logRotator.Close()
		}
		return nil, err
	}
	return b, nil
}

func (b *Backend) parseLevels(debugLevel string) error {
	if debugLevel == "" {
		return nil
	}
	for _, v := range strings.Split(debugLevel, ",") {
		fields := strings.Split(strings.TrimSpace(v), "=")
		switch len(fields) {
		case 1:
			level, ok := slog.LevelFromString(fields[0])
			if !ok {
				return fmt.Errorf("unknown log level %q", fields[0])
			}
			b.defaultLevel = level
		case 2:
			level, ok := slog.LevelFromString(fields[1])
			if !ok {
				return fmt.Errorf("unknown log level %q for subsystem %s", fields[1], fields[0])
			}
			b.levels[fields[0]] = level
		default:
			return fmt.Errorf("unable to parse %q as subsys=level debuglevel string", v)
		}
	}
	return nil
}

// Write implements io.Writer for the slog backend
func (b *Backend) Write(p []byte) (int, error) {
	if b.stdout != nil {
		b.stdout.Write(p)
	}
	if b.rotator != nil {
		b.rotator.Write(p)
	}

	b.mu.Lock()
	b.recent = append(b.recent, strings.TrimRight(string(p), "\n"))
	if len(b.recent) > recentLines {
		b.recent = b.recent[len(b.recent)-recentLines:]
	}
	b.mu.Unlock()

	return len(p), nil
}

// Logger returns the logger for subsys, creating it on first use
func (b *Backend) Logger(subsys string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()

	if l, ok := b.loggers[subsys]; ok {
		return l
	}

	l := b.bknd.Logger(subsys)
	if level, ok := b.levels[subsys]; ok {
		l.SetLevel(level)
	} else {
		l.SetLevel(b.defaultLevel)
	}
	b.loggers[subsys] = l
	return l
}

// Recent returns up to n of the most recent log lines, oldest first
func (b *Backend) Recent(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.recent) {
		n = len(b.recent)
	}
	out := make([]string, n)
	copy(out, b.recent[len(b.recent)-n:])
	return out
}

// Close flushes and closes the log file
func (b *Backend) Close() error {
	if b.rotator != nil {
		return b.rotator.Close()
	}
	return nil
}
