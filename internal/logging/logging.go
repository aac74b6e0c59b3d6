// Package logging provides the structured, leveled logger shared by the
// calculator packages.
//
// Logger keeps a small surface (Debug/Info/Warn/Error with alternating
// key/value pairs, plus field and component scoping) and delegates encoding
// and output to zap.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel parses a string into a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config configures a Logger.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where logs are written when File is empty. Defaults to os.Stderr.
	Output io.Writer
	// File, when set, is opened in append mode and used instead of Output.
	File string
	// Format is "json" (default) or "console".
	Format string
	// Name is attached to every entry as the logger name.
	Name string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
		Format: "json",
		Name:   "calcstorm",
	}
}

// Logger provides structured logging.
type Logger struct {
	base     *zap.Logger
	sugar    *zap.SugaredLogger
	level  zap.AtomicLevel
	closer io.Closer
}

// New creates a logger from cfg. It only fails when cfg.File cannot be opened.
func New(cfg Config) (*Logger, error) {
	var (
		out    io.Writer = cfg.Output
		closer io.Closer
	)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.File, err)
		}
		out, closer = f, f
	}
	if out == nil {
		out = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	level := zap.NewAtomicLevelAt(cfg.Level.zapLevel())
	base := zap.New(zapcore.NewCore(enc, zapcore.AddSync(out), level))
	if cfg.Name != "" {
		base = base.Named(cfg.Name)
	}

	l := newLogger(base, level)
	l.closer = closer
	return l, nil
}

// FromZap wraps an existing zap logger. Level filtering is left to the
// logger's core.
func FromZap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return newLogger(z, zap.NewAtomicLevelAt(zapcore.DebugLevel))
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return FromZap(zap.NewNop())
}

func newLogger(base *zap.Logger, level zap.AtomicLevel) *Logger {
	return &Logger{
		base:  base,
		sugar: base.Sugar(),
		level: level,
	}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.base.With(zap.Any(key, value)))
}

// WithFields returns a new logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return l.derive(l.base.With(zf...))
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

func (l *Logger) derive(base *zap.Logger) *Logger {
	return &Logger{
		base:  base,
		sugar: base.Sugar(),
		level: l.level,
	}
}

// SetLevel sets the minimum log level. Loggers derived from l share it.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// Debug logs a debug message with alternating key/value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.log(LevelDebug, msg, keyvals...)
}

// Info logs an info message with alternating key/value pairs.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.log(LevelInfo, msg, keyvals...)
}

// Warn logs a warning message with alternating key/value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.log(LevelWarn, msg, keyvals...)
}

// Error logs an error message with alternating key/value pairs.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log(LevelError, msg, keyvals...)
}

func (l *Logger) log(level Level, msg string, keyvals ...any) {
	if l == nil || !l.level.Enabled(level.zapLevel()) {
		return
	}

	switch level {
	case LevelDebug:
		l.sugar.Debugw(msg, keyvals...)
	case LevelInfo:
		l.sugar.Infow(msg, keyvals...)
	case LevelWarn:
		l.sugar.Warnw(msg, keyvals...)
	default:
		l.sugar.Errorw(msg, keyvals...)
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// Close flushes and releases the log file, if any.
func (l *Logger) Close() error {
	_ = l.base.Sync()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}
