// Package enginewrapper creates sqlengine.Engine instances for tests on top of the supported drivers.
//
// SQLite is used by default and needs no external database. Set LENDING_TEST_ADAPTER to
// pgxpool, sqldb or sqlx and LENDING_TEST_POSTGRES_DSN to run the same tests on PostgreSQL.
package enginewrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	"github.com/AntonStoeckl/library-lending-go/shell/config"
)

// Adapter type constants
const (
	typeSQLite  = "sqlite"
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"

	envAdapterType = "LENDING_TEST_ADAPTER"
	envPostgresDSN = "LENDING_TEST_POSTGRES_DSN"

	testMaxConns    = 10
	testBusyTimeout = 10 * time.Second
)

// Wrapper abstracts over the different database adapters.
type Wrapper interface {
	Engine() sqlengine.Engine
	Exec(t testing.TB, statement string)
	Close()
}

type pgxPoolWrapper struct {
	pool   *pgxpool.Pool
	engine sqlengine.Engine
}

func (w *pgxPoolWrapper) Engine() sqlengine.Engine { return w.engine }

func (w *pgxPoolWrapper) Exec(t testing.TB, statement string) {
	_, err := w.pool.Exec(context.Background(), statement)
	require.NoError(t, err, "error executing raw sql in test setup")
}

func (w *pgxPoolWrapper) Close() { w.pool.Close() }

// sqlDBWrapper serves both lib/pq and SQLite, which share database/sql.
type sqlDBWrapper struct {
	db     *sql.DB
	engine sqlengine.Engine
}

func (w *sqlDBWrapper) Engine() sqlengine.Engine { return w.engine }

func (w *sqlDBWrapper) Exec(t testing.TB, statement string) {
	_, err := w.db.Exec(statement)
	require.NoError(t, err, "error executing raw sql in test setup")
}

func (w *sqlDBWrapper) Close() { _ = w.db.Close() }

type sqlxWrapper struct {
	db     *sqlx.DB
	engine sqlengine.Engine
}

func (w *sqlxWrapper) Engine() sqlengine.Engine { return w.engine }

func (w *sqlxWrapper) Exec(t testing.TB, statement string) {
	_, err := w.db.Exec(statement)
	require.NoError(t, err, "error executing raw sql in test setup")
}

func (w *sqlxWrapper) Close() { _ = w.db.Close() }

// CreateWrapperWithTestConfig creates the wrapper selected by LENDING_TEST_ADAPTER with an empty,
// migrated database. The wrapper is closed when the test finishes.
func CreateWrapperWithTestConfig(t testing.TB, options ...sqlengine.Option) Wrapper {
	t.Helper()

	ctx := context.Background()
	adapterType := strings.ToLower(os.Getenv(envAdapterType))

	var wrapper Wrapper

	switch adapterType {
	case typeSQLite, "":
		path := filepath.Join(t.TempDir(), "lending.db")
		db, err := config.NewSQLiteDB(ctx, path, testMaxConns, testBusyTimeout)
		require.NoError(t, err, "error opening sqlite in test setup")

		options = append([]sqlengine.Option{sqlengine.WithDialect(sqlengine.DialectSQLite)}, options...)
		engine, err := sqlengine.NewEngineFromSQLDB(db, options...)
		require.NoError(t, err, "error creating engine in test setup")

		wrapper = &sqlDBWrapper{db: db, engine: engine}

	case typePGXPool:
		pool, err := config.NewPGXPool(ctx, postgresDSN(t), testMaxConns)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		engine, err := sqlengine.NewEngineFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating engine in test setup")

		wrapper = &pgxPoolWrapper{pool: pool, engine: engine}

	case typeSQLDB:
		db, err := config.NewPostgresSQLDB(ctx, postgresDSN(t), testMaxConns)
		require.NoError(t, err, "error connecting to DB in test setup")

		engine, err := sqlengine.NewEngineFromSQLDB(db, options...)
		require.NoError(t, err, "error creating engine in test setup")

		wrapper = &sqlDBWrapper{db: db, engine: engine}

	case typeSQLX:
		db, err := config.NewPostgresSQLX(ctx, postgresDSN(t), testMaxConns)
		require.NoError(t, err, "error connecting to DB in test setup")

		engine, err := sqlengine.NewEngineFromSQLX(db, options...)
		require.NoError(t, err, "error creating engine in test setup")

		wrapper = &sqlxWrapper{db: db, engine: engine}

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}

	require.NoError(t, wrapper.Engine().EnsureSchema(ctx), "error creating the schema in test setup")

	if adapterType != typeSQLite && adapterType != "" {
		CleanUp(t, wrapper)
	}

	t.Cleanup(wrapper.Close)

	return wrapper
}

// CleanUp empties all lending tables.
func CleanUp(t testing.TB, wrapper Wrapper) {
	wrapper.Exec(t, "DELETE FROM loans")
	wrapper.Exec(t, "DELETE FROM borrowers")
	wrapper.Exec(t, "DELETE FROM items")
}

func postgresDSN(t testing.TB) string {
	dsn := os.Getenv(envPostgresDSN)
	if dsn == "" {
		t.Skipf("%s is not set", envPostgresDSN)
	}

	return dsn
}
