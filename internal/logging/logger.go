// Package logging provides the leveled logger shared across sharetier's
// components: one instance constructed at startup, threaded explicitly
// through the orchestrator, scanner, and migration executor rather than
// used as a package-level global.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogSettings controls where logs go.
//
// Modes:
//   - NoLogs=true  => console-only (stdout). No log files are created.
//   - NoLogs=false => write logs to files under LogDir.
//
// Scheduled ticks need file logs to inspect runs after the fact; manual
// CLI invocations often prefer console-only output.
type LogSettings struct {
	NoLogs bool
	LogDir string
}

// successLevel and countLevel extend zap's level set. zap has no native
// "success" or "count" notion, so they are modeled as custom levels
// below DebugLevel, matching the teacher's extra log levels. The cores are
// enabled from countLevel up so both levels are emitted.
const (
	successLevel = zapcore.Level(-2)
	countLevel   = zapcore.Level(-3)
)

func levelString(l zapcore.Level) string {
	switch l {
	case successLevel:
		return "SUCCESS"
	case countLevel:
		return "COUNT"
	default:
		return l.CapitalString()
	}
}

// Logger is a goroutine-safe logger intended as a single shared instance
// across the whole app (scanners, planner, migration executor all log
// through the same instance concurrently). Safety is delegated to zap's
// own synchronized cores.
type Logger struct {
	base    *zap.SugaredLogger
	errSink *zap.SugaredLogger // duplicates ERROR lines into errors.log
	cntSink *zap.SugaredLogger // duplicates COUNT lines into counts.log
}

// New initializes a Logger.
//
// If settings.NoLogs is false, settings.LogDir must be set and is created
// eagerly: for scheduled runs, failing fast on a bad log directory beats
// silently losing logs mid-run.
func New(settings LogSettings) (*Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(levelString(l))
	}
	consoleEnc := zapcore.NewConsoleEncoder(encCfg)

	if settings.NoLogs {
		core := zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), countLevel)
		l := zap.New(core)
		return &Logger{base: l.Sugar(), errSink: l.Sugar(), cntSink: l.Sugar()}, nil
	}

	if settings.LogDir == "" {
		return nil, fmt.Errorf("log dir is empty (settings.LogDir)")
	}
	if err := os.MkdirAll(settings.LogDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	mainSink, err := openSink(filepath.Join(settings.LogDir, "tiering.log"))
	if err != nil {
		return nil, err
	}
	errSink, err := openSink(filepath.Join(settings.LogDir, "errors.log"))
	if err != nil {
		return nil, err
	}
	cntSink, err := openSink(filepath.Join(settings.LogDir, "counts.log"))
	if err != nil {
		return nil, err
	}

	mainCore := zapcore.NewTee(
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), countLevel),
		zapcore.NewCore(consoleEnc, mainSink, countLevel),
	)
	errCore := zapcore.NewCore(consoleEnc, zapcore.NewMultiWriteSyncer(mainSink, errSink), zapcore.ErrorLevel)
	cntCore := zapcore.NewCore(consoleEnc, zapcore.NewMultiWriteSyncer(mainSink, cntSink), countLevel)

	return &Logger{
		base:    zap.New(mainCore).Sugar(),
		errSink: zap.New(errCore).Sugar(),
		cntSink: zap.New(cntCore).Sugar(),
	}, nil
}

func openSink(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return zapcore.AddSync(f), nil
}

func (l *Logger) Debug(msg string)   { l.base.Debug(msg) }
func (l *Logger) Info(msg string)    { l.base.Info(msg) }
func (l *Logger) Warn(msg string)    { l.base.Warn(msg) }
func (l *Logger) Success(msg string) { l.base.Log(successLevel, msg) }

// Error logs at error level and additionally fans out to errors.log.
func (l *Logger) Error(msg string) {
	l.base.Error(msg)
	if l.errSink != nil {
		l.errSink.Error(msg)
	}
}

// Count logs summary counters (files archived per share, etc.) and
// additionally fans out to counts.log.
func (l *Logger) Count(msg string) {
	l.base.Log(countLevel, msg)
	if l.cntSink != nil {
		l.cntSink.Log(countLevel, msg)
	}
}

// Fatal logs the message and exits the process with code 1.
// Use only for unrecoverable startup states; it does not run deferred
// cleanup in other goroutines.
func (l *Logger) Fatal(msg string) {
	l.base.Error(msg)
	os.Exit(1)
}

func (l *Logger) Debugf(format string, args ...any)   { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)    { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)    { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any)   { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Successf(format string, args ...any) { l.Success(fmt.Sprintf(format, args...)) }
func (l *Logger) Countf(format string, args ...any)   { l.Count(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...any)   { l.Fatal(fmt.Sprintf(format, args...)) }

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() {
	_ = l.base.Sync()
}
