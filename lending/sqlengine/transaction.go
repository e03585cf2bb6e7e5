package sqlengine

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// txWork is a unit of work executed inside one transaction.
// It must only use the given handle, so every statement runs on the transaction's connection.
type txWork func(ctx context.Context, tx adapters.Querier) error

// withTransaction runs work inside a transaction on a pooled connection.
//
// The transaction commits only when work returns nil and ctx is still live. In every other case,
// including a panic inside work, it is rolled back with a context that is detached from ctx,
// so the connection goes back to the pool even after the caller gave up.
// A failed commit is reported as lending.ErrCommitFailed: the effect of work is then unknown.
func (e Engine) withTransaction(ctx context.Context, work txWork) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, beginErr := e.db.BeginTx(ctx)
	if beginErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, beginErr)
		}

		return errors.Join(lending.ErrBeginningTransactionFailed, beginErr)
	}

	finished := false
	defer func() {
		if finished {
			return
		}

		e.rollback(ctx, tx)
	}()

	if workErr := work(ctx, tx); workErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(workErr, ctxErr) {
			return errors.Join(ctxErr, workErr)
		}

		return workErr
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	finished = true

	start := time.Now()
	commitErr := tx.Commit(ctx)
	e.logQueryWithDuration(ctx, "COMMIT", "commit", time.Since(start))

	if commitErr != nil {
		return errors.Join(lending.ErrCommitFailed, commitErr)
	}

	return nil
}

func (e Engine) rollback(ctx context.Context, tx adapters.DBTx) {
	rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.rollbackTimeout)
	defer cancel()

	start := time.Now()
	rollbackErr := tx.Rollback(rollbackCtx)
	e.logQueryWithDuration(ctx, "ROLLBACK", "rollback", time.Since(start))

	if rollbackErr != nil {
		e.logWarn(ctx, logMsgRollbackFailed, logAttrError, rollbackErr.Error())
	}
}
