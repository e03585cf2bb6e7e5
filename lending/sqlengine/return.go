package sqlengine

import (
	"context"
	"strconv"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// Return closes the open loan of a borrower for an item and returns the closed loan.
//
// The borrower must match both the contact id and the exact name used at issue time.
// The item row is locked like in Issue, so a return never interleaves with an issue of the same item.
// An increment that would take available_copies above total_copies is not clamped but fails
// with a *lending.ConsistencyError, and nothing is changed.
//
// Failures: *lending.ValidationError, lending.ErrItemNotFound, lending.ErrBorrowerNotFound,
// lending.ErrNoActiveLoan, *lending.ConsistencyError and infrastructure errors.
func (e Engine) Return(ctx context.Context, req lending.ReturnRequest) (lending.Loan, error) {
	observer, ctx := e.startOperation(ctx, operationReturn, spanNameReturn, map[string]string{
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

		borrowerID, err := e.findBorrower(ctx, tx, validated.ContactID, validated.BorrowerName)
		if err != nil {
			return err
		}

		open, found, err := e.openLoan(ctx, tx, item.ID, borrowerID)
		if err != nil {
			return err
		}

		if !found {
			return lending.ErrNoActiveLoan
		}

		if item.AvailableCopies+1 > item.TotalCopies {
			return &lending.ConsistencyError{ItemCode: item.Code, Detail: "return would exceed total copies"}
		}

		returned := e.today()

		closed, err := e.exec(ctx, tx, "close loan", e.buildCloseLoanStatement(open.ID, returned))
		if err != nil {
			return err
		}

		if closed != 1 {
			return &lending.ConsistencyError{ItemCode: item.Code, Detail: "open loan could not be closed under the item lock"}
		}

		incremented, err := e.exec(ctx, tx, "increment available copies", e.buildIncrementAvailableStatement(item.ID))
		if err != nil {
			return err
		}

		if incremented != 1 {
			return &lending.ConsistencyError{ItemCode: item.Code, Detail: "return would exceed total copies"}
		}

		open.ReturnedDate = &returned
		loan = open
		availableAfter = item.AvailableCopies + 1

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
