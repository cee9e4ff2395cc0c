// Package logging builds the logr.Logger used across homewalk. Records are
// produced by zap through the zapr bridge.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logr.Logger.V.
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

var (
	mu  sync.RWMutex
	std = logr.Discard()
)

// ParseLevel maps a level name to a logr verbosity. "error" and "warn"
// both map below INFO and keep only errors.
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return INFO, nil
	case "debug":
		return DEBUG, nil
	case "trace":
		return TRACE, nil
	case "warn", "error":
		return -1, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}

// New returns a logger at the named level. development switches to the
// human-readable console encoder.
func New(level string, development bool) (logr.Logger, error) {
	v, err := ParseLevel(level)
	if err != nil {
		return logr.Discard(), err
	}
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-v))
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !development

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("logging: build zap logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

// NewWriter returns a console logger writing to w at verbosity v.
func NewWriter(w io.Writer, v int) logr.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(zapcore.Level(-v)))
	return zapr.NewLogger(zap.New(core))
}

// NewTestLogger installs a TRACE-level logger that discards its output, so
// every V-guarded branch runs under test without polluting test output.
func NewTestLogger() logr.Logger {
	l := NewWriter(io.Discard, TRACE)
	SetDefault(l)
	return l
}

// SetDefault replaces the process-wide logger returned by Default.
func SetDefault(l logr.Logger) {
	mu.Lock()
	defer mu.Unlock()
	std = l
}

// Default returns the process-wide logger. It discards until SetDefault
// is called.
func Default() logr.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}
