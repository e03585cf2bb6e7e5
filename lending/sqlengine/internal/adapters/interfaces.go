package adapters

import "context"

// Querier is the parameterized query handle shared by the connection pool and open transactions.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
}

// DBAdapter defines the interface for database operations needed by the lending engine.
type DBAdapter interface {
	Querier

	// QueryReplica runs a read-only query on the replica if one is configured, otherwise on the primary.
	QueryReplica(ctx context.Context, query string, args ...any) (DBRows, error)

	// BeginTx acquires a connection from the pool and starts a transaction on it.
	BeginTx(ctx context.Context) (DBTx, error)

	Ping(ctx context.Context) error
}

// DBTx is a transaction bound to exactly one pooled connection.
// Commit and Rollback both release the connection.
type DBTx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
