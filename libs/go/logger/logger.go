package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nexfield/nexfield-api/libs/go/constants"
)

// Log is the process-wide logger. InitLogger must run before anything
// touches it.
var Log *zap.Logger

// InitLogger builds the global logger for the given stage. Deployed
// stages (prod, dev) emit JSON for the log pipeline; everything else
// emits human-readable console output. LOG_LEVEL overrides the default
// info threshold.
func InitLogger(stage string) {
	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = parsed
	}

	deployed := stage == constants.ProdEnvironment || stage == constants.DevEnvironment

	var cfg zap.Config
	if deployed {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.MessageKey = "message"
		cfg.InitialFields = map[string]interface{}{
			"service": "nexfield-api",
			"stage":   stage,
		}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	cfg.Level = zap.NewAtomicLevelAt(level)
	// Stacktraces drown the JSON pipeline unless debugging
	cfg.DisableStacktrace = deployed && level > zapcore.DebugLevel

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	Log = logger
}

// Info logs a message at InfoLevel
func Info(msg string, fields ...zapcore.Field) {
	Log.Info(msg, fields...)
}

// Error logs a message at ErrorLevel
func Error(msg string, fields ...zapcore.Field) {
	Log.Error(msg, fields...)
}

// Debug logs a message at DebugLevel
func Debug(msg string, fields ...zapcore.Field) {
	Log.Debug(msg, fields...)
}

// Warn logs a message at WarnLevel
func Warn(msg string, fields ...zapcore.Field) {
	Log.Warn(msg, fields...)
}

// Fatal logs a message at FatalLevel and then calls os.Exit(1)
func Fatal(msg string, fields ...zapcore.Field) {
	Log.Fatal(msg, fields...)
}

// With creates a child logger carrying the given fields
func With(fields ...zapcore.Field) *zap.Logger {
	return Log.With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return Log.Sync()
}
