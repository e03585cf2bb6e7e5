// Package lending provides the core types and contracts for lending physical copies of catalog items
// (books) to borrowers.
//
// This package defines the entities shared by every store implementation, the request types for the
// two lending operations together with their validation, the error taxonomy returned by the lending
// protocol, and the dependency-free observability interfaces that store implementations accept.
//
// Key types:
//   - Item: a catalog entry with a fixed number of owned copies and a mutable available count
//   - Borrower: a person identified by a stable contact identifier (a phone number)
//   - Loan: one copy of one item held by one borrower, open until returned
//   - IssueRequest / ReturnRequest: the inputs of the two lending operations
//
// The central invariant, for every item, is
//
//	0 <= AvailableCopies <= TotalCopies
//	AvailableCopies == TotalCopies - count(open loans of the item)
//
// Common usage pattern:
//
//	loan, err := engine.Issue(ctx, lending.IssueRequest{
//		ItemCode:     "B1",
//		BorrowerName: "Jane Doe",
//		ContactID:    "+49 170 1234567",
//		DueDate:      "2026-11-01",
//	})
//
//	var unavailable *lending.UnavailableError
//	if errors.As(err, &unavailable) {
//		// unavailable.NextAvailable holds the earliest due date of the open loans, if any
//	}
package lending
