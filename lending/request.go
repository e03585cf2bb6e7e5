package lending

import (
	"errors"
	"strings"
)

const (
	fieldItemCode     = "item_code"
	fieldBorrowerName = "borrower_name"
	fieldContactID    = "contact_id"
	fieldDueDate      = "due_date"
	fieldTitle        = "title"
	fieldTotalCopies  = "total_copies"
	reasonMissing     = "is required"
	reasonMalformed   = "must be a date in YYYY-MM-DD format"
	reasonNotPositive = "must be at least 1"
)

// IssueRequest is the input of the issue operation. Affiliation is optional.
type IssueRequest struct {
	ItemCode     string
	BorrowerName string
	Affiliation  string
	ContactID    string
	DueDate      string
}

// ValidatedIssue is an IssueRequest that passed validation, with trimmed fields and a parsed due date.
type ValidatedIssue struct {
	ItemCode     string
	BorrowerName string
	Affiliation  string
	ContactID    string
	DueDate      Date
}

// Validate trims all fields and checks that every required field is present.
// All problems are reported at once as joined ValidationErrors.
func (r IssueRequest) Validate() (ValidatedIssue, error) {
	v := ValidatedIssue{
		ItemCode:     strings.TrimSpace(r.ItemCode),
		BorrowerName: strings.TrimSpace(r.BorrowerName),
		Affiliation:  strings.TrimSpace(r.Affiliation),
		ContactID:    strings.TrimSpace(r.ContactID),
	}

	var errs []error
	errs = appendIfMissing(errs, fieldItemCode, v.ItemCode)
	errs = appendIfMissing(errs, fieldBorrowerName, v.BorrowerName)
	errs = appendIfMissing(errs, fieldContactID, v.ContactID)

	dueDate := strings.TrimSpace(r.DueDate)
	if dueDate == "" {
		errs = append(errs, &ValidationError{Field: fieldDueDate, Reason: reasonMissing})
	} else {
		parsed, err := ParseDate(dueDate)
		if err != nil {
			errs = append(errs, &ValidationError{Field: fieldDueDate, Reason: reasonMalformed})
		}
		v.DueDate = parsed
	}

	if len(errs) > 0 {
		return ValidatedIssue{}, errors.Join(errs...)
	}

	return v, nil
}

// ReturnRequest is the input of the return operation. All fields are required.
type ReturnRequest struct {
	ItemCode     string
	BorrowerName string
	ContactID    string
}

// Validate trims all fields and checks that every field is present.
func (r ReturnRequest) Validate() (ReturnRequest, error) {
	v := ReturnRequest{
		ItemCode:     strings.TrimSpace(r.ItemCode),
		BorrowerName: strings.TrimSpace(r.BorrowerName),
		ContactID:    strings.TrimSpace(r.ContactID),
	}

	var errs []error
	errs = appendIfMissing(errs, fieldItemCode, v.ItemCode)
	errs = appendIfMissing(errs, fieldBorrowerName, v.BorrowerName)
	errs = appendIfMissing(errs, fieldContactID, v.ContactID)

	if len(errs) > 0 {
		return ReturnRequest{}, errors.Join(errs...)
	}

	return v, nil
}

// NewItem is the input for adding an item to the catalog. Author is optional.
type NewItem struct {
	Code        string
	Title       string
	Author      string
	TotalCopies int
}

// Validate trims all fields and checks code, title and the copy count.
func (n NewItem) Validate() (NewItem, error) {
	v := NewItem{
		Code:        strings.TrimSpace(n.Code),
		Title:       strings.TrimSpace(n.Title),
		Author:      strings.TrimSpace(n.Author),
		TotalCopies: n.TotalCopies,
	}

	var errs []error
	errs = appendIfMissing(errs, fieldItemCode, v.Code)
	errs = appendIfMissing(errs, fieldTitle, v.Title)

	if v.TotalCopies < 1 {
		errs = append(errs, &ValidationError{Field: fieldTotalCopies, Reason: reasonNotPositive})
	}

	if len(errs) > 0 {
		return NewItem{}, errors.Join(errs...)
	}

	return v, nil
}

func appendIfMissing(errs []error, field, value string) []error {
	if value == "" {
		return append(errs, &ValidationError{Field: field, Reason: reasonMissing})
	}

	return errs
}

// ValidationErrors extracts the individual ValidationErrors from err.
func ValidationErrors(err error) []*ValidationError {
	var result []*ValidationError

	var single *ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			result = append(result, ValidationErrors(e)...)
		}
	} else if errors.As(err, &single) {
		result = append(result, single)
	}

	return result
}
