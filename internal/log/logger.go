// SPDX-License-Identifier: MIT
//
// Package log is a thin leveled façade over zap. The rest of the repository
// logs through these package-level functions so the backing logger can be
// configured (or silenced) in one place. The level is adjustable at runtime;
// hot paths must log on state changes only, never per frame.
package log

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --- Global logger state ---

// level gates all output atomically and can be changed at runtime.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var sugar *zap.SugaredLogger

func init() {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(os.Stderr),
		level,
	)
	sugar = zap.New(core).Sugar()
}

// ParseLevel converts a string (case-insensitive) to a zap level.
// Returns InfoLevel and false if the string is not recognized.
func ParseLevel(levelStr string) (zapcore.Level, bool) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// SetLevel sets the global logging level atomically.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// GetLevel gets the current global logging level.
func GetLevel() zapcore.Level {
	return level.Level()
}

// Sync flushes any buffered log entries. Call on program exit.
func Sync() {
	_ = sugar.Sync()
}

// --- Public logging functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) {
	sugar.Debugf(format, v...)
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) {
	sugar.Infof(format, v...)
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) {
	sugar.Warnf(format, v...)
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) {
	sugar.Errorf(format, v...)
}

// Fatalf logs a formatted fatal message and exits the application.
func Fatalf(format string, v ...any) {
	sugar.Fatalf(format, v...)
}

// --- Functions without formatting (convenience) ---

// Debug logs a debug message if the level is appropriate.
func Debug(v ...any) {
	sugar.Debug(v...)
}

// Info logs an info message if the level is appropriate.
func Info(v ...any) {
	sugar.Info(v...)
}

// Warn logs a warning message if the level is appropriate.
func Warn(v ...any) {
	sugar.Warn(v...)
}

// Error logs an error message if the level is appropriate.
func Error(v ...any) {
	sugar.Error(v...)
}
