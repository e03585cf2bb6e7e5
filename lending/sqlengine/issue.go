package sqlengine

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// Issue lends one copy of an item to a borrower and returns the new open loan.
//
// The request is validated before a transaction is opened. Inside the transaction the item row is
// locked first, so racing issues of the same item are ordered by the database: the loser of a race
// for the last copy sees zero available copies and fails with a *lending.UnavailableError.
// The borrower is created or updated in the same transaction.
//
// Failures: *lending.ValidationError, lending.ErrItemNotFound, *lending.UnavailableError,
// lending.ErrAlreadyOnLoan, *lending.ConsistencyError and infrastructure errors.
// Issue is never retried internally. After lending.ErrCommitFailed the caller must check the
// current loans before it tries again.
func (e Engine) Issue(ctx context.Context, req lending.IssueRequest) (lending.Loan, error) {
	observer, ctx := e.startOperation(ctx, operationIssue, spanNameIssue, map[string]string{
		spanAttrItemCode: req.ItemCode,
	})

	validated, err := req.Validate()
	if err != nil {
		observer.finishError(err)
		return lending.Loan{}, err
	}

	var loan lending.Loan
	var availableAfter int

	err = e.withTransaction(ctx, func(ctx context.Context, tx adapters.Querier) error {
		item, err := e.lockItem(ctx, tx, validated.ItemCode)
		if err != nil {
			return err
		}

		if item.AvailableCopies < 1 {
			next, err := e.earliestOpenDueDate(ctx, tx, item.ID)
			if err != nil {
				return err
			}

			return &lending.UnavailableError{ItemCode: item.Code, NextAvailable: next}
		}

		borrowerID, err := e.resolveBorrower(ctx, tx, validated.ContactID, validated.BorrowerName, validated.Affiliation)
		if err != nil {
			return err
		}

		_, hasOpenLoan, err := e.openLoan(ctx, tx, item.ID, borrowerID)
		if err != nil {
			return err
		}

		if hasOpenLoan {
			return lending.ErrAlreadyOnLoan
		}

		loan = lending.Loan{
			ID:         uuid.New(),
			ItemID:     item.ID,
			BorrowerID: borrowerID,
			IssueDate:  e.today(),
			DueDate:    validated.DueDate,
		}

		if _, err := e.exec(ctx, tx, "insert loan", e.buildInsertLoanStatement(loan)); err != nil {
			return err
		}

		rowsAffected, err := e.exec(ctx, tx, "decrement available copies", e.buildDecrementAvailableStatement(item.ID))
		if err != nil {
			return err
		}

		if rowsAffected != 1 {
			return &lending.ConsistencyError{ItemCode: item.Code, Detail: "available copies did not decrement under the item lock"}
		}

		availableAfter = item.AvailableCopies - 1

		return nil
	})

	if err != nil {
		observer.finishError(err)
		return lending.Loan{}, err
	}

	e.recordAvailableCopies(ctx, validated.ItemCode, availableAfter)
	observer.finishSuccess(
		map[string]string{
			spanAttrLoanID:          loan.ID.String(),
			spanAttrAvailableCopies: strconv.Itoa(availableAfter),
		},
		spanAttrItemCode, validated.ItemCode,
		spanAttrLoanID, loan.ID.String(),
	)

	return loan, nil
}

// lockItem fetches an item by code and locks its row for the rest of the transaction.
func (e Engine) lockItem(ctx context.Context, tx adapters.Querier, code string) (lending.Item, error) {
	var item lending.Item

	found, err := e.queryOne(
		ctx,
		tx,
		"lock item",
		e.buildItemByCodeQuery(code, true),
		itemScanTargets(&item)...,
	)
	if err != nil {
		return lending.Item{}, err
	}

	if !found {
		return lending.Item{}, lending.ErrItemNotFound
	}

	return item, nil
}

// earliestOpenDueDate returns nil when the item has no open loan.
func (e Engine) earliestOpenDueDate(ctx context.Context, tx adapters.Querier, itemID uuid.UUID) (*lending.Date, error) {
	var dueDate lending.Date

	found, err := e.queryOne(ctx, tx, "earliest open due date", e.buildEarliestOpenDueDateQuery(itemID), &dueDate)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &dueDate, nil
}

// openLoan returns the open loan of a borrower for an item, if there is one.
func (e Engine) openLoan(
	ctx context.Context,
	tx adapters.Querier,
	itemID uuid.UUID,
	borrowerID uuid.UUID,
) (lending.Loan, bool, error) {
	loan := lending.Loan{ItemID: itemID, BorrowerID: borrowerID}

	found, err := e.queryOne(
		ctx,
		tx,
		"open loan",
		e.buildOpenLoanQuery(itemID, borrowerID),
		&loan.ID, &loan.IssueDate, &loan.DueDate,
	)
	if err != nil || !found {
		return lending.Loan{}, false, err
	}

	return loan, true, nil
}

func itemScanTargets(item *lending.Item) []any {
	return []any{&item.ID, &item.Code, &item.Title, &item.Author, &item.TotalCopies, &item.AvailableCopies}
}
