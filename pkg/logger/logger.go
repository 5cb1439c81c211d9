package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	level        zap.AtomicLevel
	mu           sync.RWMutex
)

func init() { // keep a usable logger before Init runs (tests, early startup)
	globalLogger = zap.NewNop()
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
}

// Init configures the global logger using the provided level string.
// Unknown levels fall back to info rather than failing startup.
func Init(lvl string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(lvl)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	level = cfg.Level
	globalLogger = built
	return nil
}

// Logger returns the configured global logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return globalLogger
}

// Sync flushes buffered log entries.
func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger annotated with the module name.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// SetLevel adjusts the logging level at runtime.
func SetLevel(lvl string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(lvl)); err != nil {
		return
	}

	mu.RLock()
	defer mu.RUnlock()
	level.SetLevel(zapLevel)
}

// Info logs an informational message using the global logger.
func Info(msg string, fields ...zap.Field) {
	Logger().Info(msg, fields...)
}

// Warn logs a warning message using the global logger.
func Warn(msg string, fields ...zap.Field) {
	Logger().Warn(msg, fields...)
}

// Error logs an error message using the global logger.
func Error(msg string, fields ...zap.Field) {
	Logger().Error(msg, fields...)
}

// Debug logs a debug message using the global logger.
func Debug(msg string, fields ...zap.Field) {
	Logger().Debug(msg, fields...)
}
