package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
	sugar  *zap.SugaredLogger
)

func init() {
	l, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
	Use(l)
}

// Use replaces the package logger and returns a func that restores the previous one.
func Use(l *zap.Logger) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := logger
	logger = l
	sugar = l.Sugar()
	return func() {
		if prev != nil {
			Use(prev)
		}
	}
}

// Configure rebuilds the package logger from a level and a formatter name ("text" or "json").
func Configure(level string, formatter string, fields map[string]interface{}) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	var cfg zap.Config
	switch formatter {
	case "", "text":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("unsupported formatter: %q", formatter)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	opts := []zap.Option{zap.AddCallerSkip(1)}
	if len(fields) > 0 {
		zf := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zf = append(zf, zap.Any(k, v))
		}

		opts = append(opts, zap.Fields(zf...))
	}

	l, err := cfg.Build(opts...)
	if err != nil {
		return err
	}

	Use(l)
	return nil
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func currentSugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Sync() error {
	return current().Sync()
}

func Combine(field zap.Field, fields ...zap.Field) []zap.Field {
	return append([]zap.Field{field}, fields...)
}

func CombineAll(fieldGroups ...[]zap.Field) []zap.Field {
	v := make([]zap.Field, 0)
	for _, g := range fieldGroups {
		v = append(v, g...)
	}

	return v
}

func At(level zapcore.Level, msg string, fields ...zap.Field) {
	if ce := current().Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func Fatal(msg string, fields ...zap.Field) {
	current().Fatal(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	current().Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	current().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	current().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	current().Error(msg, fields...)
}

func FatalS(format string, args ...interface{}) {
	if len(args) > 0 {
		currentSugar().Fatalf(format, args...)
	} else {
		currentSugar().Fatal(format)
	}
}

func InfoS(format string, args ...interface{}) {
	if len(args) > 0 {
		currentSugar().Infof(format, args...)
	} else {
		currentSugar().Info(format)
	}
}

func DebugS(format string, args ...interface{}) {
	if len(args) > 0 {
		currentSugar().Debugf(format, args...)
	} else {
		currentSugar().Debug(format)
	}
}

func WarnS(format string, args ...interface{}) {
	if len(args) > 0 {
		currentSugar().Warnf(format, args...)
	} else {
		currentSugar().Warn(format)
	}
}

func ErrorS(format string, args ...interface{}) {
	if len(args) > 0 {
		currentSugar().Errorf(format, args...)
	} else {
		currentSugar().Error(format)
	}
}
