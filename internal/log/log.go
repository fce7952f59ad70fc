// Package log wraps a process-wide zap logger so that packages without an
// injected logger can still emit structured output.
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	sugar *zap.SugaredLogger
	base  *zap.Logger
)

// FileOutput describes a rotated log file written alongside the console
// output.
type FileOutput struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init builds the package logger. Debug mode uses zap's development config
// (console encoder, debug level); otherwise the production JSON config.
// When file is non-nil, entries are also written as JSON to a rotated file.
func Init(debug bool, file *FileOutput) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		l, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	if file != nil && file.Path != "" {
		level := zapcore.InfoLevel
		if debug {
			level = zapcore.DebugLevel
		}
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   file.Path,
				MaxSize:    file.MaxSizeMB,
				MaxBackups: file.MaxBackups,
				MaxAge:     file.MaxAgeDays,
			}),
			level,
		)
		l = l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	base = l
	sugar = l.Sugar()
	return nil
}

func ensure() {
	if sugar == nil {
		base, _ = zap.NewProduction(zap.AddCallerSkip(1))
		sugar = base.Sugar()
	}
}

// GetZapLogger returns the unsugared logger, e.g. for GORM's std-log adapter.
func GetZapLogger() *zap.Logger {
	ensure()
	return base
}

// Named returns a child logger tagged with the given component name.
func Named(name string) *zap.SugaredLogger {
	ensure()
	return base.WithOptions(zap.AddCallerSkip(-1)).Sugar().Named(name)
}

// Sync flushes any buffered log entries
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

func Debug(args ...any) {
	ensure()
	sugar.Debug(args...)
}

func Debugf(template string, args ...any) {
	ensure()
	sugar.Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...any) {
	ensure()
	sugar.Debugw(msg, keysAndValues...)
}

func Info(args ...any) {
	ensure()
	sugar.Info(args...)
}

func Infof(template string, args ...any) {
	ensure()
	sugar.Infof(template, args...)
}

func Infow(msg string, keysAndValues ...any) {
	ensure()
	sugar.Infow(msg, keysAndValues...)
}

func Warn(args ...any) {
	ensure()
	sugar.Warn(args...)
}

func Warnf(template string, args ...any) {
	ensure()
	sugar.Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...any) {
	ensure()
	sugar.Warnw(msg, keysAndValues...)
}

func Error(args ...any) {
	ensure()
	sugar.Error(args...)
}

func Errorf(template string, args ...any) {
	ensure()
	sugar.Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...any) {
	ensure()
	sugar.Errorw(msg, keysAndValues...)
}

// Fatalf logs and exits the process with status 1.
func Fatalf(template string, args ...any) {
	ensure()
	sugar.Fatalf(template, args...)
}
