package sqlengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// resolveBorrower returns the id of the borrower with the given contact id inside the caller's
// transaction. An existing borrower gets name and affiliation overwritten, otherwise one is created.
//
// The upsert makes two concurrent first-time issues by the same contact on different items
// end up with one borrower row instead of a unique violation.
func (e Engine) resolveBorrower(
	ctx context.Context,
	tx adapters.Querier,
	contactID string,
	name string,
	affiliation string,
) (uuid.UUID, error) {
	candidate := lending.Borrower{
		ID:          uuid.New(),
		ContactID:   contactID,
		Name:        name,
		Affiliation: affiliation,
	}

	if _, err := e.exec(ctx, tx, "upsert borrower", e.buildUpsertBorrowerStatement(candidate)); err != nil {
		return uuid.Nil, err
	}

	var borrowerID uuid.UUID

	found, err := e.queryOne(ctx, tx, "borrower by contact", e.buildBorrowerIDByContactQuery(contactID), &borrowerID)
	if err != nil {
		return uuid.Nil, err
	}

	if !found {
		return uuid.Nil, fmt.Errorf("%w: upserted borrower %s is not visible", lending.ErrQueryFailed, contactID)
	}

	return borrowerID, nil
}

// findBorrower looks up a borrower by contact id and exact name.
func (e Engine) findBorrower(ctx context.Context, tx adapters.Querier, contactID, name string) (uuid.UUID, error) {
	var borrowerID uuid.UUID

	found, err := e.queryOne(
		ctx,
		tx,
		"borrower by contact and name",
		e.buildBorrowerIDByContactAndNameQuery(contactID, name),
		&borrowerID,
	)
	if err != nil {
		return uuid.Nil, err
	}

	if !found {
		return uuid.Nil, lending.ErrBorrowerNotFound
	}

	return borrowerID, nil
}
