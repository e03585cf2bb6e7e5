package sqlengine

import (
	"context"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id               UUID PRIMARY KEY,
		code             TEXT NOT NULL UNIQUE,
		title            TEXT NOT NULL,
		author           TEXT NOT NULL DEFAULT '',
		total_copies     INTEGER NOT NULL CHECK (total_copies >= 0),
		available_copies INTEGER NOT NULL,
		CONSTRAINT items_available_copies_bounds CHECK (available_copies BETWEEN 0 AND total_copies)
	)`,
	`CREATE TABLE IF NOT EXISTS borrowers (
		id          UUID PRIMARY KEY,
		contact_id  TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		affiliation TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id            UUID PRIMARY KEY,
		item_id       UUID NOT NULL REFERENCES items (id),
		borrower_id   UUID NOT NULL REFERENCES borrowers (id),
		issue_date    DATE NOT NULL,
		due_date      DATE NOT NULL,
		returned_date DATE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS loans_one_open_loan_per_borrower
		ON loans (item_id, borrower_id) WHERE returned_date IS NULL`,
	`CREATE INDEX IF NOT EXISTS loans_open_by_due_date
		ON loans (due_date) WHERE returned_date IS NULL`,
}

// SQLite stores ids and dates as TEXT.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id               TEXT PRIMARY KEY,
		code             TEXT NOT NULL UNIQUE,
		title            TEXT NOT NULL,
		author           TEXT NOT NULL DEFAULT '',
		total_copies     INTEGER NOT NULL CHECK (total_copies >= 0),
		available_copies INTEGER NOT NULL,
		CONSTRAINT items_available_copies_bounds CHECK (available_copies BETWEEN 0 AND total_copies)
	)`,
	`CREATE TABLE IF NOT EXISTS borrowers (
		id          TEXT PRIMARY KEY,
		contact_id  TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		affiliation TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id            TEXT PRIMARY KEY,
		item_id       TEXT NOT NULL REFERENCES items (id),
		borrower_id   TEXT NOT NULL REFERENCES borrowers (id),
		issue_date    TEXT NOT NULL,
		due_date      TEXT NOT NULL,
		returned_date TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS loans_one_open_loan_per_borrower
		ON loans (item_id, borrower_id) WHERE returned_date IS NULL`,
	`CREATE INDEX IF NOT EXISTS loans_open_by_due_date
		ON loans (due_date) WHERE returned_date IS NULL`,
}

// rawStatement is a fixed SQL statement without arguments.
type rawStatement string

func (s rawStatement) ToSQL() (string, []any, error) {
	return string(s), nil, nil
}

// EnsureSchema creates the items, borrowers and loans tables and their indexes if they do not exist.
// It is safe to call on every start.
func (e Engine) EnsureSchema(ctx context.Context) error {
	observer, ctx := e.startOperation(ctx, operationSchema, spanNameQuery, nil)

	statements := postgresSchema
	if e.dialect == DialectSQLite {
		statements = sqliteSchema
	}

	for _, statement := range statements {
		if _, err := e.exec(ctx, e.db, operationSchema, rawStatement(statement)); err != nil {
			observer.finishError(err)
			return err
		}
	}

	observer.finishSuccess(nil)

	return nil
}
