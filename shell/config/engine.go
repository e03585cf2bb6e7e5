package config

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
)

// CloseFunc releases the database pools behind an engine.
type CloseFunc func()

// OpenEngine connects to the configured database and creates a sqlengine.Engine on top of it.
// The SQLite driver selects the SQLite dialect automatically; all other drivers speak PostgreSQL.
func OpenEngine(ctx context.Context, cfg DatabaseConfig, options ...sqlengine.Option) (sqlengine.Engine, CloseFunc, error) {
	switch cfg.Driver {
	case DriverPGX:
		return openPGXEngine(ctx, cfg, options...)

	case DriverPostgres:
		db, err := NewPostgresSQLDB(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return sqlengine.Engine{}, nil, err
		}

		engine, err := sqlengine.NewEngineFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return sqlengine.Engine{}, nil, err
		}

		return engine, func() { _ = db.Close() }, nil

	case DriverSQLX:
		db, err := NewPostgresSQLX(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return sqlengine.Engine{}, nil, err
		}

		engine, err := sqlengine.NewEngineFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return sqlengine.Engine{}, nil, err
		}

		return engine, func() { _ = db.Close() }, nil

	case DriverSQLite:
		db, err := NewSQLiteDB(ctx, cfg.DSN, cfg.MaxConns, cfg.BusyTimeout)
		if err != nil {
			return sqlengine.Engine{}, nil, err
		}

		options = append([]sqlengine.Option{sqlengine.WithDialect(sqlengine.DialectSQLite)}, options...)

		engine, err := sqlengine.NewEngineFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return sqlengine.Engine{}, nil, err
		}

		return engine, func() { _ = db.Close() }, nil

	default:
		return sqlengine.Engine{}, nil, errors.Join(ErrUnknownDriver, errors.New(cfg.Driver))
	}
}

func openPGXEngine(ctx context.Context, cfg DatabaseConfig, options ...sqlengine.Option) (sqlengine.Engine, CloseFunc, error) {
	pool, err := NewPGXPool(ctx, cfg.DSN, cfg.MaxConns)
	if err != nil {
		return sqlengine.Engine{}, nil, err
	}

	closeAll := pool.Close

	if cfg.ReplicaDSN != "" {
		replica, replicaErr := NewPGXPool(ctx, cfg.ReplicaDSN, cfg.MaxConns)
		if replicaErr != nil {
			pool.Close()
			return sqlengine.Engine{}, nil, replicaErr
		}

		options = append(options, sqlengine.WithReplica(replica))
		closeAll = func() {
			replica.Close()
			pool.Close()
		}
	}

	engine, err := sqlengine.NewEngineFromPGXPool(pool, options...)
	if err != nil {
		closeAll()
		return sqlengine.Engine{}, nil, err
	}

	return engine, closeAll, nil
}
