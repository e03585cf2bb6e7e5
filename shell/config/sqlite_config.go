package config

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

const sqliteDriverName = "sqlite"

// SQLiteDSN turns a database file path into a modernc.org/sqlite DSN.
//
// Every transaction is opened with BEGIN IMMEDIATE, so it holds the database write lock from its
// first statement on. This is what serializes concurrent issues of the same item on SQLite, which
// has no row locks. Waiting writers retry for up to busyTimeout. A DSN that already carries query
// parameters is returned unchanged.
func SQLiteDSN(path string, busyTimeout time.Duration) string {
	if strings.Contains(path, "?") {
		return path
	}

	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")

	return "file:" + path + "?" + params.Encode()
}

// NewSQLiteDB opens the SQLite database at path and checks that it is usable.
func NewSQLiteDB(ctx context.Context, path string, maxConns int, busyTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, SQLiteDSN(path, busyTimeout))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}
