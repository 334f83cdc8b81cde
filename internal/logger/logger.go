// Package logger provides structured logging with zap.
package logger

import (
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap.Logger depending on the environment. When file is
// non-empty, log lines are also written to a rotating file.
func New(env, file string) *zap.Logger {
	var logger *zap.Logger
	if env == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if file == "" {
		return logger
	}

	rotate := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotate),
		levelFor(env),
	)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
}

func levelFor(env string) zapcore.Level {
	if env == "production" {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}
