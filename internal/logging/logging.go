package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the small structured logging surface used across the project.
type Logger interface {
	Infow(msg string, keysAndValues ...any)
	Debugw(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	Sync() error
}

type noopLogger struct{}

func (noopLogger) Infow(string, ...any)  {}
func (noopLogger) Debugw(string, ...any) {}
func (noopLogger) Warnw(string, ...any)  {}
func (noopLogger) Errorw(string, ...any) {}
func (noopLogger) Sync() error           { return nil }

var (
	mu      sync.RWMutex
	current Logger = noopLogger{}
	once    sync.Once
)

// Init builds the process-wide zap logger for the given level ("debug",
// "info", "warn", "error") and redirects the standard library logger into it.
// Only the first call has an effect.
func Init(level string) {
	once.Do(func() {
		cfg := zap.Config{
			Encoding:         "console",
			EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		}
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		logger, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			return
		}
		_ = zap.RedirectStdLog(logger)
		SetLogger(logger.Sugar())
	})
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		current = noopLogger{}
		return
	}
	current = l
}

func get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Infow(msg string, keysAndValues ...any)  { get().Infow(msg, keysAndValues...) }
func Debugw(msg string, keysAndValues ...any) { get().Debugw(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...any)  { get().Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...any) { get().Errorw(msg, keysAndValues...) }

// Sync flushes buffered entries.
func Sync() error { return get().Sync() }
