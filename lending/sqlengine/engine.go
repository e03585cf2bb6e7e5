package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

const (
	tableItems     = "items"
	tableBorrowers = "borrowers"
	tableLoans     = "loans"

	colID              = "id"
	colCode            = "code"
	colTitle           = "title"
	colAuthor          = "author"
	colTotalCopies     = "total_copies"
	colAvailableCopies = "available_copies"
	colContactID       = "contact_id"
	colName            = "name"
	colAffiliation     = "affiliation"
	colItemID          = "item_id"
	colBorrowerID      = "borrower_id"
	colIssueDate       = "issue_date"
	colDueDate         = "due_date"
	colReturnedDate    = "returned_date"

	defaultRollbackTimeout = 5 * time.Second
)

// Dialect selects the SQL flavor the engine generates.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

var ErrUnsupportedDialect = errors.New("unsupported sql dialect")

// Engine implements the lending protocol on a relational database.
// It is safe for concurrent use; all shared state lives in the database.
type Engine struct {
	db               adapters.DBAdapter
	dialect          Dialect
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
	now              func() time.Time
	rollbackTimeout  time.Duration
	replica          *pgxpool.Pool
}

// NewEngineFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, lending.ErrNilDatabaseConnection
	}

	e, err := newEngine(adapters.NewPGXAdapter(db), options...)
	if err != nil {
		return Engine{}, err
	}

	if e.replica != nil {
		e.db = adapters.NewPGXAdapterWithReplica(db, e.replica)
	}

	return e, nil
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, lending.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, lending.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (Engine, error) {
	e := Engine{
		db:              db,
		dialect:         DialectPostgres,
		now:             time.Now,
		rollbackTimeout: defaultRollbackTimeout,
	}

	for _, option := range options {
		if err := option(&e); err != nil {
			return Engine{}, err
		}
	}

	return e, nil
}

// Ping checks that the primary database is reachable.
func (e Engine) Ping(ctx context.Context) error {
	return e.db.Ping(ctx)
}

func (e Engine) builder() goqu.DialectWrapper {
	return goqu.Dialect(string(e.dialect))
}

// today is the current calendar date in UTC.
func (e Engine) today() lending.Date {
	return lending.DateOf(e.now().UTC())
}

// dateArg converts a Date into the argument type the dialect stores dates as.
func (e Engine) dateArg(d lending.Date) any {
	if e.dialect == DialectSQLite {
		return d.String()
	}

	return d.Time()
}
