package sqlengine

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Option defines a functional option for configuring Engine.
type Option func(*Engine) error

// WithDialect sets the SQL dialect. The default is DialectPostgres.
func WithDialect(dialect Dialect) Option {
	return func(e *Engine) error {
		switch dialect {
		case DialectPostgres, DialectSQLite:
			e.dialect = dialect
			return nil
		default:
			return ErrUnsupportedDialect
		}
	}
}

// WithReplica sets a read replica pool for read-only queries.
// It is only honored by NewEngineFromPGXPool, and only for contexts marked with
// lending.WithEventualConsistency. Issue and return always run on the primary.
func WithReplica(replica *pgxpool.Pool) Option {
	return func(e *Engine) error {
		e.replica = replica
		return nil
	}
}

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Completed operations with durations (production-safe)
// Warn level: Rejected operations and rollback failures
// Error level: Infrastructure failures and broken inventory invariants.
func WithLogger(logger lending.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine.
// It receives the same messages as the Logger together with the request context,
// so trace and span ids can be correlated when tracing is enabled.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine.
func WithTracing(collector lending.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}

// WithClock replaces time.Now as the source of issue and return dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		if now != nil {
			e.now = now
		}

		return nil
	}
}

// WithRollbackTimeout bounds how long a rollback may take after the caller's context is done.
func WithRollbackTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout > 0 {
			e.rollbackTimeout = timeout
		}

		return nil
	}
}
