package sqlengine

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	aliasLoans     = "l"
	aliasItems     = "i"
	aliasBorrowers = "b"
	aliasTotal     = "total"
	aliasAvailable = "available"
	aliasOpenLoans = "open_loans"
	excludedName   = "excluded.name"
	excludedAffil  = "excluded.affiliation"
	decrementExpr  = "? - 1"
	incrementExpr  = "? + 1"
	likeWildcard   = "%"
)

var itemColumns = []any{colID, colCode, colTitle, colAuthor, colTotalCopies, colAvailableCopies}

func (e Engine) selectItems() *goqu.SelectDataset {
	return e.builder().
		From(tableItems).
		Prepared(true).
		Select(itemColumns...)
}

// buildItemByCodeQuery selects one item. With lock set, the row is locked until the transaction ends.
func (e Engine) buildItemByCodeQuery(code string, lock bool) *goqu.SelectDataset {
	ds := e.selectItems().Where(goqu.C(colCode).Eq(code))

	if lock {
		ds = ds.ForUpdate(exp.Wait)
	}

	return ds
}

func (e Engine) buildListItemsQuery() *goqu.SelectDataset {
	return e.selectItems().Order(goqu.C(colTitle).Asc(), goqu.C(colCode).Asc())
}

// buildSearchItemsQuery matches a case-insensitive substring of the title.
func (e Engine) buildSearchItemsQuery(term string) *goqu.SelectDataset {
	pattern := likeWildcard + strings.ToLower(term) + likeWildcard

	return e.selectItems().
		Where(goqu.Func("LOWER", goqu.C(colTitle)).Like(pattern)).
		Order(goqu.C(colTitle).Asc(), goqu.C(colCode).Asc())
}

func (e Engine) buildInsertItemStatement(item lending.Item) *goqu.InsertDataset {
	return e.builder().
		Insert(tableItems).
		Prepared(true).
		Rows(goqu.Record{
			colID:              item.ID,
			colCode:            item.Code,
			colTitle:           item.Title,
			colAuthor:          item.Author,
			colTotalCopies:     item.TotalCopies,
			colAvailableCopies: item.AvailableCopies,
		})
}

// buildDecrementAvailableStatement never takes available_copies below zero.
func (e Engine) buildDecrementAvailableStatement(itemID uuid.UUID) *goqu.UpdateDataset {
	return e.builder().
		Update(tableItems).
		Prepared(true).
		Set(goqu.Record{colAvailableCopies: goqu.L(decrementExpr, goqu.C(colAvailableCopies))}).
		Where(
			goqu.C(colID).Eq(itemID),
			goqu.C(colAvailableCopies).Gt(0),
		)
}

// buildIncrementAvailableStatement never takes available_copies above total_copies.
func (e Engine) buildIncrementAvailableStatement(itemID uuid.UUID) *goqu.UpdateDataset {
	return e.builder().
		Update(tableItems).
		Prepared(true).
		Set(goqu.Record{colAvailableCopies: goqu.L(incrementExpr, goqu.C(colAvailableCopies))}).
		Where(
			goqu.C(colID).Eq(itemID),
			goqu.C(colAvailableCopies).Lt(goqu.C(colTotalCopies)),
		)
}

// buildUpsertBorrowerStatement inserts a borrower or overwrites name and affiliation of the
// existing one with the same contact id.
func (e Engine) buildUpsertBorrowerStatement(borrower lending.Borrower) *goqu.InsertDataset {
	return e.builder().
		Insert(tableBorrowers).
		Prepared(true).
		Rows(goqu.Record{
			colID:          borrower.ID,
			colContactID:   borrower.ContactID,
			colName:        borrower.Name,
			colAffiliation: borrower.Affiliation,
		}).
		OnConflict(goqu.DoUpdate(colContactID, goqu.Record{
			colName:        goqu.L(excludedName),
			colAffiliation: goqu.L(excludedAffil),
		}))
}

func (e Engine) buildBorrowerIDByContactQuery(contactID string) *goqu.SelectDataset {
	return e.builder().
		From(tableBorrowers).
		Prepared(true).
		Select(colID).
		Where(goqu.C(colContactID).Eq(contactID))
}

// buildBorrowerIDByContactAndNameQuery requires both the contact id and the name to match exactly.
func (e Engine) buildBorrowerIDByContactAndNameQuery(contactID, name string) *goqu.SelectDataset {
	return e.buildBorrowerIDByContactQuery(contactID).
		Where(goqu.C(colName).Eq(name))
}

func (e Engine) openLoans() exp.Expression {
	return goqu.C(colReturnedDate).IsNull()
}

// buildEarliestOpenDueDateQuery selects the due date of the open loan of an item that ends first.
func (e Engine) buildEarliestOpenDueDateQuery(itemID uuid.UUID) *goqu.SelectDataset {
	return e.builder().
		From(tableLoans).
		Prepared(true).
		Select(colDueDate).
		Where(goqu.C(colItemID).Eq(itemID), e.openLoans()).
		Order(goqu.C(colDueDate).Asc()).
		Limit(1)
}

func (e Engine) buildOpenLoanQuery(itemID, borrowerID uuid.UUID) *goqu.SelectDataset {
	return e.builder().
		From(tableLoans).
		Prepared(true).
		Select(colID, colIssueDate, colDueDate).
		Where(
			goqu.C(colItemID).Eq(itemID),
			goqu.C(colBorrowerID).Eq(borrowerID),
			e.openLoans(),
		).
		Order(goqu.C(colIssueDate).Asc()).
		Limit(1)
}

func (e Engine) buildInsertLoanStatement(loan lending.Loan) *goqu.InsertDataset {
	return e.builder().
		Insert(tableLoans).
		Prepared(true).
		Rows(goqu.Record{
			colID:         loan.ID,
			colItemID:     loan.ItemID,
			colBorrowerID: loan.BorrowerID,
			colIssueDate:  e.dateArg(loan.IssueDate),
			colDueDate:    e.dateArg(loan.DueDate),
		})
}

// buildCloseLoanStatement only closes a loan that is still open.
func (e Engine) buildCloseLoanStatement(loanID uuid.UUID, returned lending.Date) *goqu.UpdateDataset {
	return e.builder().
		Update(tableLoans).
		Prepared(true).
		Set(goqu.Record{colReturnedDate: e.dateArg(returned)}).
		Where(goqu.C(colID).Eq(loanID), e.openLoans())
}

func (e Engine) buildCopyTotalsQuery() *goqu.SelectDataset {
	return e.builder().
		From(tableItems).
		Prepared(true).
		Select(
			goqu.COALESCE(goqu.SUM(colTotalCopies), goqu.L("0")).As(aliasTotal),
			goqu.COALESCE(goqu.SUM(colAvailableCopies), goqu.L("0")).As(aliasAvailable),
		)
}

func (e Engine) buildOpenLoanCountQuery() *goqu.SelectDataset {
	return e.builder().
		From(tableLoans).
		Prepared(true).
		Select(goqu.COUNT(goqu.Star()).As(aliasOpenLoans)).
		Where(e.openLoans())
}

// buildCurrentLoansQuery joins every open loan with its item and borrower, earliest due date first.
func (e Engine) buildCurrentLoansQuery() *goqu.SelectDataset {
	return e.builder().
		From(goqu.T(tableLoans).As(aliasLoans)).
		Prepared(true).
		Join(
			goqu.T(tableItems).As(aliasItems),
			goqu.On(goqu.T(aliasLoans).Col(colItemID).Eq(goqu.T(aliasItems).Col(colID))),
		).
		Join(
			goqu.T(tableBorrowers).As(aliasBorrowers),
			goqu.On(goqu.T(aliasLoans).Col(colBorrowerID).Eq(goqu.T(aliasBorrowers).Col(colID))),
		).
		Select(
			goqu.T(aliasLoans).Col(colID),
			goqu.T(aliasItems).Col(colCode),
			goqu.T(aliasItems).Col(colTitle),
			goqu.T(aliasBorrowers).Col(colName),
			goqu.T(aliasBorrowers).Col(colContactID),
			goqu.T(aliasBorrowers).Col(colAffiliation),
			goqu.T(aliasLoans).Col(colIssueDate),
			goqu.T(aliasLoans).Col(colDueDate),
		).
		Where(goqu.T(aliasLoans).Col(colReturnedDate).IsNull()).
		Order(
			goqu.T(aliasLoans).Col(colDueDate).Asc(),
			goqu.T(aliasItems).Col(colCode).Asc(),
			goqu.T(aliasBorrowers).Col(colContactID).Asc(),
		)
}
