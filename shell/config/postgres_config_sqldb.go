package config

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const postgresDriverName = "postgres"

// NewPostgresSQLDB creates a configured *sql.DB on the lib/pq driver and checks the connection.
func NewPostgresSQLDB(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open(postgresDriverName, dsn)
	if err != nil {
		return nil, err
	}

	configureSQLDBPool(db, maxConns)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}

// NewPostgresSQLX creates a configured *sqlx.DB on the lib/pq driver and checks the connection.
func NewPostgresSQLX(ctx context.Context, dsn string, maxConns int) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, postgresDriverName, dsn)
	if err != nil {
		return nil, err
	}

	configureSQLDBPool(db.DB, maxConns)

	return db, nil
}

func configureSQLDBPool(db *sql.DB, maxConns int) {
	const defaultMaxIdleConnections = 2
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 5

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(min(defaultMaxIdleConnections, maxConns))
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}
