package lending

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrValidation is the sentinel wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrItemNotFound is returned when no item exists for the given code.
	ErrItemNotFound = errors.New("item not found")

	// ErrBorrowerNotFound is returned by Return when no borrower matches both contact id and name.
	ErrBorrowerNotFound = errors.New("borrower not found")

	// ErrNoActiveLoan is returned by Return when the borrower holds no open loan for the item.
	ErrNoActiveLoan = errors.New("no active loan found for this borrower and item")

	// ErrUnavailable is the sentinel wrapped by UnavailableError.
	ErrUnavailable = errors.New("item not available")

	// ErrAlreadyOnLoan is returned by Issue when the borrower already holds an open loan for the item.
	ErrAlreadyOnLoan = errors.New("borrower already holds an open loan for this item")

	// ErrDuplicateItemCode is returned when an item with the same code already exists.
	ErrDuplicateItemCode = errors.New("item code already exists")

	// ErrConsistencyViolated is the sentinel wrapped by ConsistencyError.
	ErrConsistencyViolated = errors.New("inventory consistency violated")
)

var (
	ErrNilDatabaseConnection      = errors.New("database connection must not be nil")
	ErrBuildingQueryFailed        = errors.New("building the query failed")
	ErrQueryFailed                = errors.New("querying the database failed")
	ErrScanningRowFailed          = errors.New("scanning the database row failed")
	ErrExecutingStatementFailed   = errors.New("executing the statement failed")
	ErrGettingRowsAffectedFailed  = errors.New("getting the rows affected count failed")
	ErrBeginningTransactionFailed = errors.New("beginning the transaction failed")

	// ErrCommitFailed means the outcome of the unit of work is unknown.
	// Callers must re-check the current loans before retrying an issue or return.
	ErrCommitFailed = errors.New("committing the transaction failed")
)

// ValidationError describes one missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrValidation) work.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// UnavailableError is returned by Issue when no copy of the item is available.
// NextAvailable is the earliest due date among the open loans of the item.
// It is nil when no open loan exists, which only happens if the store is inconsistent.
type UnavailableError struct {
	ItemCode      string
	NextAvailable *Date
}

func (e *UnavailableError) Error() string {
	if e.NextAvailable == nil {
		return fmt.Sprintf("%s: %s", ErrUnavailable.Error(), e.ItemCode)
	}

	return fmt.Sprintf("%s: %s (next available %s)", ErrUnavailable.Error(), e.ItemCode, e.NextAvailable)
}

// Unwrap makes errors.Is(err, ErrUnavailable) work.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// ConsistencyError signals that the available copies invariant of an item is broken.
// It never occurs in correct operation and must not be handled like an ordinary failure.
type ConsistencyError struct {
	ItemCode string
	Detail   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: item %s: %s", ErrConsistencyViolated.Error(), e.ItemCode, e.Detail)
}

// Unwrap makes errors.Is(err, ErrConsistencyViolated) work.
func (e *ConsistencyError) Unwrap() error {
	return ErrConsistencyViolated
}

// Kind classifies errors returned by the lending protocol.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindDuplicate
	KindConsistency
	KindCanceled
	KindInfrastructure
)

// KindOf classifies err. Anything not recognized as a business failure is KindInfrastructure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrBorrowerNotFound), errors.Is(err, ErrNoActiveLoan):
		return KindNotFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrAlreadyOnLoan):
		return KindConflict
	case errors.Is(err, ErrDuplicateItemCode):
		return KindDuplicate
	case errors.Is(err, ErrConsistencyViolated):
		return KindConsistency
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInfrastructure
	}
}

// String provides a string representation of Kind for logging and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDuplicate:
		return "duplicate_entry"
	case KindConsistency:
		return "consistency_error"
	case KindCanceled:
		return "canceled"
	case KindInfrastructure:
		return "infrastructure_error"
	default:
		return "unknown"
	}
}

// IsBusinessFailure reports whether err is an expected outcome of the lending rules
// rather than a fault of the store or the process.
func IsBusinessFailure(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindConflict, KindDuplicate:
		return true
	default:
		return false
	}
}
