package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	log   = newLogger(os.Stdout)
)

func newLogger(out zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), out, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// SetLevel changes the minimum level of the package logger, e.g. "debug".
func SetLevel(l string) error {
	return level.UnmarshalText([]byte(l))
}

// Replace swaps the package logger, mostly for tests that want zaptest or
// observer cores.
func Replace(l *zap.Logger) {
	log = l.WithOptions(zap.AddCallerSkip(1))
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
}

func Sync() error {
	return log.Sync()
}
