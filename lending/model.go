package lending

import (
	"github.com/google/uuid"
)

// Item is a catalog entry with a finite number of owned copies.
// AvailableCopies is written only by the lending protocol.
type Item struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
}

// OnLoan returns the number of copies currently lent out.
func (i Item) OnLoan() int {
	return i.TotalCopies - i.AvailableCopies
}

// Borrower is a person identified by a unique contact identifier.
// Name and Affiliation are overwritten on every issue (last write wins).
type Borrower struct {
	ID          uuid.UUID `json:"id"`
	ContactID   string    `json:"contact_id"`
	Name        string    `json:"name"`
	Affiliation string    `json:"affiliation"`
}

// Loan links one copy of an Item to one Borrower.
// A Loan is open while ReturnedDate is nil. It is never reopened or deleted.
type Loan struct {
	ID           uuid.UUID `json:"id"`
	ItemID       uuid.UUID `json:"item_id"`
	BorrowerID   uuid.UUID `json:"borrower_id"`
	IssueDate    Date      `json:"issue_date"`
	DueDate      Date      `json:"due_date"`
	ReturnedDate *Date     `json:"returned_date"`
}

// IsOpen reports whether the loan has not been returned yet.
func (l Loan) IsOpen() bool {
	return l.ReturnedDate == nil
}

// CurrentLoan is an open loan joined with the display fields of its item and borrower.
type CurrentLoan struct {
	LoanID       uuid.UUID `json:"loan_id"`
	ItemCode     string    `json:"code"`
	Title        string    `json:"title"`
	BorrowerName string    `json:"name"`
	ContactID    string    `json:"phone"`
	Affiliation  string    `json:"college"`
	IssueDate    Date      `json:"issue_date"`
	DueDate      Date      `json:"due_date"`
}

// Summary aggregates the copy counts of the whole catalog.
type Summary struct {
	TotalCopies     int `json:"total_books"`
	AvailableCopies int `json:"available_books"`
	OnLoan          int `json:"issued"`
}
