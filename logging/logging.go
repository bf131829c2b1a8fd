// Package logging is the structured logger camcalib components log through. Output is zap's
// console format: time, level, logger name, caller and message separated by tabs, followed by
// the key/value fields as JSON.
package logging

import (
	"io"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// DefaultTimeFormatStr is the timestamp layout of console output.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Level is a logging priority.
type Level = zapcore.Level

// Levels used by camcalib.
const (
	DEBUG = zapcore.DebugLevel
	INFO  = zapcore.InfoLevel
	WARN  = zapcore.WarnLevel
)

// Logger is handed to every component explicitly; library code never reaches for a
// process-wide instance.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<parent>.<subname>". The level is shared with the
	// parent, so SetLevel on either affects both.
	Sublogger(subname string) Logger
	SetLevel(level Level)
	Level() Level
}

type zapLogger struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

func (l *zapLogger) Sublogger(subname string) Logger {
	return &zapLogger{SugaredLogger: l.Named(subname), level: l.level}
}

func (l *zapLogger) SetLevel(level Level) {
	l.level.SetLevel(level)
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "msg",
		StacktraceKey:    zapcore.OmitKey,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout(DefaultTimeFormatStr),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: "\t",
	}
}

// NewWriterLogger returns a logger named name that writes console lines at level and above to w.
// Writes are serialized, so w does not need to be safe for concurrent use.
func NewWriterLogger(name string, w io.Writer, level Level) Logger {
	atomicLevel := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		atomicLevel,
	)
	return &zapLogger{
		SugaredLogger: zap.New(core, zap.AddCaller()).Sugar().Named(name),
		level:         atomicLevel,
	}
}

// NewTestLogger returns a debug level logger that writes to the test output.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also records every entry in memory so tests
// can assert on what was logged.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	atomicLevel := zap.NewAtomicLevelAt(DEBUG)
	observerCore, observedLogs := observer.New(atomicLevel)
	logger := zaptest.NewLogger(tb,
		zaptest.Level(atomicLevel),
		zaptest.WrapOptions(zap.AddCaller(), zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, observerCore)
		})),
	)
	return &zapLogger{SugaredLogger: logger.Sugar(), level: atomicLevel}, observedLogs
}
