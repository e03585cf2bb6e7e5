package sqlengine

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// sqlBuilder is implemented by all goqu datasets.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (e Engine) toSQL(ds sqlBuilder) (string, []any, error) {
	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, errors.Join(lending.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// query executes a query on q. The caller must close the returned rows
// before it executes the next statement on the same transaction.
func (e Engine) query(ctx context.Context, q adapters.Querier, action string, ds sqlBuilder) (adapters.DBRows, error) {
	sqlQuery, args, buildErr := e.toSQL(ds)
	if buildErr != nil {
		return nil, buildErr
	}

	start := time.Now()
	rows, queryErr := q.Query(ctx, sqlQuery, args...)
	e.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		return nil, errors.Join(lending.ErrQueryFailed, queryErr)
	}

	return rows, nil
}

// queryOne scans the first row of the result into dest and reports whether there was one.
func (e Engine) queryOne(
	ctx context.Context,
	q adapters.Querier,
	action string,
	ds sqlBuilder,
	dest ...any,
) (bool, error) {
	rows, err := e.query(ctx, q, action, ds)
	if err != nil {
		return false, err
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		if iterErr := rows.Err(); iterErr != nil {
			return false, errors.Join(lending.ErrQueryFailed, iterErr)
		}

		return false, nil
	}

	if scanErr := rows.Scan(dest...); scanErr != nil {
		return false, errors.Join(lending.ErrScanningRowFailed, scanErr)
	}

	return true, nil
}

// queryAll calls scan for every row of the result.
func (e Engine) queryAll(
	ctx context.Context,
	q adapters.Querier,
	action string,
	ds sqlBuilder,
	scan func(rows adapters.DBRows) error,
) error {
	rows, err := e.query(ctx, q, action, ds)
	if err != nil {
		return err
	}
	defer e.closeRows(ctx, rows)

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			return errors.Join(lending.ErrScanningRowFailed, scanErr)
		}
	}

	if iterErr := rows.Err(); iterErr != nil {
		return errors.Join(lending.ErrQueryFailed, iterErr)
	}

	return nil
}

// exec executes a statement on q and returns the number of affected rows.
func (e Engine) exec(ctx context.Context, q adapters.Querier, action string, ds sqlBuilder) (int64, error) {
	sqlQuery, args, buildErr := e.toSQL(ds)
	if buildErr != nil {
		return 0, buildErr
	}

	start := time.Now()
	result, execErr := q.Exec(ctx, sqlQuery, args...)
	e.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if execErr != nil {
		return 0, errors.Join(lending.ErrExecutingStatementFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		return 0, errors.Join(lending.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (e Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// reader returns the handle read-only queries run on, honoring the consistency level of ctx.
func (e Engine) reader(ctx context.Context) adapters.Querier {
	if lending.GetConsistencyLevel(ctx) == lending.EventualConsistency {
		return replicaQuerier{db: e.db}
	}

	return e.db
}

type replicaQuerier struct {
	db adapters.DBAdapter
}

func (r replicaQuerier) Query(ctx context.Context, query string, args ...any) (adapters.DBRows, error) {
	return r.db.QueryReplica(ctx, query, args...)
}

func (r replicaQuerier) Exec(ctx context.Context, query string, args ...any) (adapters.DBResult, error) {
	return r.db.Exec(ctx, query, args...)
}
