// Package logger configures the application's logging.
//
// It uses *ZeroLog* for logging. Progress lines are written to stdout (they
// are part of the program's visible output), optionally mirrored into a
// rotating log file, and every line carries the service name and a run id
// so the lines of one run can be told apart in a shared file.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/deppfellow/orders-report/internal/config"
	"github.com/deppfellow/orders-report/internal/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 14
)

// New builds the application logger writing to out.
//
// The returned closer releases the log file, if one was opened; it is
// non-nil whenever err is nil. An unknown log level is an error.
func New(cfg *config.ObservabilityConfig, out io.Writer) (*zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, errs.New(errs.KindData, "parse log level", err)
	}
	// an unset level means info
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = out
	if cfg.LogFormat != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
			NoColor:    cfg.IsProduction(),
		}
	}

	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		if dir := filepath.Dir(cfg.LogFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, errs.New(errs.KindSystem, "create log directory", err)
			}
		}
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
			MaxAge:     DefaultMaxAgeDays,
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(writer, file)
		closer = file
	}

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("env", cfg.Environment).
		Str("run_id", uuid.NewString()).
		Logger()

	return &logger, closer, nil
}

// NewPgxLogger returns the logger used for SQL query tracing.
//
// It writes human-readable lines to stderr so the traced statements do not
// interleave with the report on stdout.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("component", "database").
		Logger()
}

// GetPgxTraceLogLevel converts a zerolog level into the pgx tracelog level.
func GetPgxTraceLogLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return tracelog.LogLevelError
	default:
		return tracelog.LogLevelNone
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
