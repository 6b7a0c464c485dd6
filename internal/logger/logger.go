package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar = zap.NewNop().Sugar()

// Init installs the process-wide logger. The returned function flushes
// buffered entries and should be deferred by main.
func Init(debug bool) func() {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewExample()
	}
	zap.ReplaceGlobals(l)
	sugar = l.Sugar()

	return func() { _ = l.Sync() }
}

func Debugf(template string, args ...interface{}) { sugar.Debugf(template, args...) }

func Info(msg string, keysAndValues ...interface{}) { sugar.Infow(msg, keysAndValues...) }

func Infof(template string, args ...interface{}) { sugar.Infof(template, args...) }

func Warnf(template string, args ...interface{}) { sugar.Warnf(template, args...) }

func Error(msg string, keysAndValues ...interface{}) { sugar.Errorw(msg, keysAndValues...) }

func Errorf(template string, args ...interface{}) { sugar.Errorf(template, args...) }

func Fatalf(template string, args ...interface{}) { sugar.Fatalf(template, args...) }

// Sugared returns the process-wide logger. It satisfies asynq.Logger.
func Sugared() *zap.SugaredLogger { return sugar }
