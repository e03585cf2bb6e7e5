// Package adapters provide database adapter implementations for the SQL lending engine.
//
// This package implements the adapter pattern to support multiple database libraries:
// pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, and every transaction they open is exposed as a DBTx.
//
// Statements are always executed with a separate argument list, so values are bound
// by the driver and never interpolated into the SQL text.
package adapters
