package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger every service receives. It wraps a
// *zap.Logger for the actual log calls and additionally fans a Record
// out to whatever Sinks were configured, so a ring-buffer sink and a
// file sink can both observe the same stream without re-parsing zap's
// own output. The runner's `logs` CLI subcommand does not read these
// sinks; it reads the per-task agent log files.
type Logger struct {
	zl    *zap.Logger
	sinks MultiSink
}

// Config selects the logger's encoding and destinations.
type Config struct {
	// Verbose raises the level to debug, mirroring --verbose on the CLI.
	Verbose bool
	// Console requests a human-readable console encoder instead of JSON
	// (braind always logs JSON; brain-runner uses this whenever stdout
	// is a terminal, with or without --verbose).
	Console bool
	Sinks   []Sink
}

// New builds a Logger per Config. JSON encoding matches
// zap.NewProductionConfig()'s defaults, grounded on the teacher's CLI
// logger setup.
func New(cfg Config) (*Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if cfg.Console {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zl, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{zl: zl, sinks: cfg.Sinks}, nil
}

// NewNop returns a Logger that discards everything, for tests that
// don't care about log output.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

func (l *Logger) Info(msg string, fields ...zap.Field)  { l.log("info", msg, fields) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.log("warn", msg, fields) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.log("error", msg, fields) }
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.log("debug", msg, fields) }

func (l *Logger) log(level, msg string, fields []zap.Field) {
	switch level {
	case "debug":
		l.zl.Debug(msg, fields...)
	case "warn":
		l.zl.Warn(msg, fields...)
	case "error":
		l.zl.Error(msg, fields...)
	default:
		l.zl.Info(msg, fields...)
	}
	if len(l.sinks) == 0 {
		return
	}
	ctx := make(map[string]any, len(fields))
	for _, f := range fields {
		ctx[f.Key] = fieldValue(f)
	}
	rec := Record{Level: level, Message: msg, Context: ctx, Timestamp: time.Now().UTC()}
	l.sinks.Write(rec)
}

// Sync flushes the underlying zap logger, mirroring the teacher's
// PersistentPostRun `logger.Sync()` call.
func (l *Logger) Sync() error { return l.zl.Sync() }

// With returns a child Logger with the given fields pre-attached to
// every subsequent call, delegating to zap's own With.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zl: l.zl.With(fields...), sinks: l.sinks}
}

// Stderr is a convenience Sink-free Logger for early startup errors
// before configuration has loaded, mirroring the teacher's
// fmt.Fprintf(os.Stderr, ...) warning-on-init-failure pattern.
func Stderr(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
