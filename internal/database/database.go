// Package database contains the logic for talking to PostgreSQL.
//
// A Driver owns exactly one connection (no pool) for the lifetime of a
// session. Statements run outside explicit transactions, so every statement
// is committed as soon as it succeeds.
//
// It handles:
//   - building the pgx connection config from config.DatabaseConfig
//   - wiring query tracing/logging (pgx tracelog) in local/debug runs
//   - the scoped session: open, run, close on every exit path
//   - a generic parameterized executor plus the report's three queries
package database

import (
	"context"

	"github.com/deppfellow/orders-report/internal/config"
	"github.com/deppfellow/orders-report/internal/errs"
	loggerConfig "github.com/deppfellow/orders-report/internal/logger"
	"github.com/deppfellow/orders-report/internal/sqlerr"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// Conn is the part of *pgx.Conn the driver uses.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

// connect opens the underlying connection. Tests replace it.
var connect = func(ctx context.Context, cfg *pgx.ConnConfig) (Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Driver wraps a single pgx connection and a logger.
//
// It has two states: connected (conn != nil) and disconnected. Open moves
// it to connected, Close back to disconnected; there is no way back.
type Driver struct {
	conn Conn
	log  *zerolog.Logger
}

// Open connects to the database described by cfg.Database.
//
// Behavior:
//   - Render the connection string and parse it into a pgx config
//   - In local env or at debug level: attach the SQL tracelogger
//   - Connect; any failure is logged and returned as a KindConnection error
//
// pgx does not open a transaction unless asked to, so the connection is in
// autocommit mode from the start.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Driver, error) {
	connConfig, err := pgx.ParseConfig(cfg.Database.ConnString())
	if err != nil {
		logger.Error().Err(err).Msg("connection failed")
		return nil, sqlerr.HandleConnectError(err)
	}

	if traceQueries(cfg, logger) {
		globalLevel := logger.GetLevel()
		connConfig.Tracer = &tracelog.TraceLog{
			// pgxzero adapts zerolog to the pgx tracelog.Logger interface.
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(globalLevel)),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		}
	}

	conn, err := connect(ctx, connConfig)
	if err != nil {
		logger.Error().Err(err).Msg("connection failed")
		return nil, sqlerr.HandleConnectError(err)
	}

	logger.Info().
		Str("host", connConfig.Host).
		Uint16("port", connConfig.Port).
		Str("database", connConfig.Database).
		Msg("connection opened")

	return &Driver{conn: conn, log: logger}, nil
}

// traceQueries is very noisy, which is why it's only on for local runs or
// when the logger is at debug level or below.
func traceQueries(cfg *config.Config, logger *zerolog.Logger) bool {
	if cfg.Observability != nil && cfg.Observability.IsLocal() {
		return true
	}
	return logger.GetLevel() <= zerolog.DebugLevel
}

// Close closes the connection if it is still open.
//
// Calling Close on a closed Driver is a no-op, so deferred and explicit
// closes can coexist.
func (d *Driver) Close(ctx context.Context) error {
	if d.conn == nil {
		return nil
	}

	err := d.conn.Close(ctx)
	d.conn = nil
	d.log.Info().Msg("connection closed")

	return sqlerr.HandleError("close", err)
}

// WithSession runs fn inside a scoped session.
//
// The connection is opened before fn runs and closed after it returns,
// errors, or panics. If the connection cannot be opened fn is never called.
// A close error is only reported when fn itself succeeded.
func WithSession(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, fn func(*Driver) error) (err error) {
	driver, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		// ctx may already be cancelled; closing must still happen.
		closeErr := driver.Close(context.WithoutCancel(ctx))
		if err == nil {
			err = closeErr
		}
	}()

	return fn(driver)
}

// Execute runs one parameterized statement.
//
// Parameters are bound through $1, $2, ... placeholders and never spliced
// into the query text.
//
// If the statement produces a result set, its rows are returned in order
// (possibly zero of them, as an empty slice). If it produces none, as a
// plain INSERT does, the result is nil.
func (d *Driver) Execute(ctx context.Context, query string, args ...any) ([][]any, error) {
	if d.conn == nil {
		return nil, &errs.Error{Kind: errs.KindConnection, Op: "execute", Message: "connection is closed"}
	}

	rows, err := d.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, sqlerr.HandleError("execute", err)
	}
	defer rows.Close()

	// Server-side errors (constraint violations, ...) are only reported once
	// the rows are consumed, so both branches read to the end and check Err.
	if len(rows.FieldDescriptions()) == 0 {
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			return nil, sqlerr.HandleError("execute", err)
		}
		return nil, nil
	}

	result := make([][]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, sqlerr.HandleError("execute", err)
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.HandleError("execute", err)
	}

	return result, nil
}
