package sqlengine

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// AddItem adds an item to the catalog with all copies available.
// An existing item with the same code fails with lending.ErrDuplicateItemCode.
func (e Engine) AddItem(ctx context.Context, newItem lending.NewItem) (lending.Item, error) {
	observer, ctx := e.startOperation(ctx, operationAddItem, spanNameAddItem, map[string]string{
		spanAttrItemCode: newItem.Code,
	})

	validated, err := newItem.Validate()
	if err != nil {
		observer.finishError(err)
		return lending.Item{}, err
	}

	item := lending.Item{
		ID:              uuid.New(),
		Code:            validated.Code,
		Title:           validated.Title,
		Author:          validated.Author,
		TotalCopies:     validated.TotalCopies,
		AvailableCopies: validated.TotalCopies,
	}

	if _, err := e.exec(ctx, e.db, "insert item", e.buildInsertItemStatement(item)); err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(lending.ErrDuplicateItemCode, err)
		}

		observer.finishError(err)

		return lending.Item{}, err
	}

	e.recordAvailableCopies(ctx, item.Code, item.AvailableCopies)
	observer.finishSuccess(nil, spanAttrItemCode, item.Code)

	return item, nil
}

// ItemByCode returns one catalog item or lending.ErrItemNotFound.
func (e Engine) ItemByCode(ctx context.Context, code string) (lending.Item, error) {
	code = strings.TrimSpace(code)

	observer, ctx := e.startQuery(ctx, operationItemByCode)

	var item lending.Item

	found, err := e.queryOne(ctx, e.reader(ctx), operationItemByCode, e.buildItemByCodeQuery(code, false), itemScanTargets(&item)...)
	if err == nil && !found {
		err = lending.ErrItemNotFound
	}

	if err != nil {
		observer.finishError(err)
		return lending.Item{}, err
	}

	observer.finishSuccess(map[string]string{spanAttrRowCount: "1"})

	return item, nil
}

// ListItems returns the whole catalog ordered by title.
func (e Engine) ListItems(ctx context.Context) ([]lending.Item, error) {
	observer, ctx := e.startQuery(ctx, operationListItems)

	items, err := e.collectItems(ctx, operationListItems, e.buildListItemsQuery())
	if err != nil {
		observer.finishError(err)
		return nil, err
	}

	observer.finishSuccess(map[string]string{spanAttrRowCount: strconv.Itoa(len(items))})

	return items, nil
}

// SearchItems returns the items whose title contains term, ignoring case, ordered by title.
// An empty term matches every item.
func (e Engine) SearchItems(ctx context.Context, term string) ([]lending.Item, error) {
	observer, ctx := e.startQuery(ctx, operationSearchItems)

	items, err := e.collectItems(ctx, operationSearchItems, e.buildSearchItemsQuery(strings.TrimSpace(term)))
	if err != nil {
		observer.finishError(err)
		return nil, err
	}

	observer.finishSuccess(map[string]string{spanAttrRowCount: strconv.Itoa(len(items))})

	return items, nil
}

func (e Engine) collectItems(ctx context.Context, action string, ds sqlBuilder) ([]lending.Item, error) {
	items := make([]lending.Item, 0)

	err := e.queryAll(ctx, e.reader(ctx), action, ds, func(rows adapters.DBRows) error {
		var item lending.Item
		if err := rows.Scan(itemScanTargets(&item)...); err != nil {
			return err
		}

		items = append(items, item)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// Summary aggregates the copy counts of the whole catalog and counts the open loans.
func (e Engine) Summary(ctx context.Context) (lending.Summary, error) {
	observer, ctx := e.startQuery(ctx, operationSummary)

	summary, err := e.summary(ctx)
	if err != nil {
		observer.finishError(err)
		return lending.Summary{}, err
	}

	observer.finishSuccess(nil)

	return summary, nil
}

func (e Engine) summary(ctx context.Context) (lending.Summary, error) {
	var summary lending.Summary

	reader := e.reader(ctx)

	if _, err := e.queryOne(
		ctx,
		reader,
		"copy totals",
		e.buildCopyTotalsQuery(),
		&summary.TotalCopies,
		&summary.AvailableCopies,
	); err != nil {
		return lending.Summary{}, err
	}

	if _, err := e.queryOne(ctx, reader, "open loan count", e.buildOpenLoanCountQuery(), &summary.OnLoan); err != nil {
		return lending.Summary{}, err
	}

	return summary, nil
}

// CurrentLoans returns all open loans with the display fields of item and borrower,
// ordered by ascending due date.
func (e Engine) CurrentLoans(ctx context.Context) ([]lending.CurrentLoan, error) {
	observer, ctx := e.startQuery(ctx, operationCurrentLoans)

	loans := make([]lending.CurrentLoan, 0)

	err := e.queryAll(ctx, e.reader(ctx), operationCurrentLoans, e.buildCurrentLoansQuery(), func(rows adapters.DBRows) error {
		var loan lending.CurrentLoan
		if err := rows.Scan(
			&loan.LoanID,
			&loan.ItemCode,
			&loan.Title,
			&loan.BorrowerName,
			&loan.ContactID,
			&loan.Affiliation,
			&loan.IssueDate,
			&loan.DueDate,
		); err != nil {
			return err
		}

		loans = append(loans, loan)

		return nil
	})
	if err != nil {
		observer.finishError(err)
		return nil, err
	}

	observer.finishSuccess(map[string]string{spanAttrRowCount: strconv.Itoa(len(loans))})

	return loans, nil
}

// startQuery starts the observation of a read-only query.
func (e Engine) startQuery(ctx context.Context, operation string) (*operationObserver, context.Context) {
	return e.startOperation(ctx, operation, spanNameQuery, map[string]string{
		spanAttrConsistency: lending.GetConsistencyLevel(ctx).String(),
	})
}
