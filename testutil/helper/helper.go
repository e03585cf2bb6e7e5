package helper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Lender is the part of the engine the fixtures need.
type Lender interface {
	AddItem(ctx context.Context, newItem lending.NewItem) (lending.Item, error)
	Issue(ctx context.Context, req lending.IssueRequest) (lending.Loan, error)
}

// FixedClock returns a clock that always reports noon UTC of the given date.
func FixedClock(date string) func() time.Time {
	d, err := lending.ParseDate(date)
	if err != nil {
		panic(err)
	}

	fixed := d.Time().Add(12 * time.Hour)

	return func() time.Time { return fixed }
}

// GivenItem adds an item with the given code and number of copies.
func GivenItem(t testing.TB, ctx context.Context, lender Lender, code string, copies int) lending.Item {
	t.Helper()

	item, err := lender.AddItem(ctx, lending.NewItem{
		Code:        code,
		Title:       "Learning Domain-Driven Design " + code,
		Author:      "Vlad Khononov",
		TotalCopies: copies,
	})
	require.NoError(t, err, "error in arranging test data")

	return item
}

// GivenIssued issues one copy of the item to the borrower.
func GivenIssued(t testing.TB, ctx context.Context, lender Lender, code, name, contactID, dueDate string) lending.Loan {
	t.Helper()

	loan, err := lender.Issue(ctx, IssueRequest(code, name, contactID, dueDate))
	require.NoError(t, err, "error in arranging test data")

	return loan
}

// IssueRequest builds an issue request with a fixed affiliation.
func IssueRequest(code, name, contactID, dueDate string) lending.IssueRequest {
	return lending.IssueRequest{
		ItemCode:     code,
		BorrowerName: name,
		Affiliation:  "CS",
		ContactID:    contactID,
		DueDate:      dueDate,
	}
}

// ReturnRequest builds a return request.
func ReturnRequest(code, name, contactID string) lending.ReturnRequest {
	return lending.ReturnRequest{
		ItemCode:     code,
		BorrowerName: name,
		ContactID:    contactID,
	}
}
