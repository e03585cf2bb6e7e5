// Package sqlengine provides the relational implementation of the lending protocol.
//
// The engine issues and returns copies of catalog items inside database transactions.
// Issue takes an exclusive lock on the item row (SELECT ... FOR UPDATE) before it reads the
// available copy count, so concurrent issues of the same item are serialized by the database,
// also across multiple processes sharing one store. Return takes the same lock.
// No in-process lock is involved.
//
// Supported connection types: pgxpool.Pool, sql.DB and sqlx.DB. Two SQL dialects are supported:
// PostgreSQL (the default) and SQLite. SQLite has no row locks; open the database with
// "_txlock=immediate" so every transaction takes the database write lock at BEGIN.
//
// Usage examples:
//
//	// PostgreSQL through pgx
//	pool, _ := pgxpool.New(ctx, dsn)
//	engine, _ := sqlengine.NewEngineFromPGXPool(pool)
//
//	// With observability
//	engine, _ := sqlengine.NewEngineFromPGXPool(
//		pool,
//		sqlengine.WithLogger(slog.Default()),
//		sqlengine.WithMetrics(collector),
//		sqlengine.WithTracing(tracer),
//	)
//
//	// Embedded SQLite
//	db, _ := sql.Open("sqlite", "file:lending.db?_txlock=immediate&_pragma=busy_timeout(5000)")
//	engine, _ := sqlengine.NewEngineFromSQLDB(db, sqlengine.WithDialect(sqlengine.DialectSQLite))
//
//	_ = engine.EnsureSchema(ctx)
//	loan, err := engine.Issue(ctx, lending.IssueRequest{...})
package sqlengine
