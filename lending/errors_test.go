package lending

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_KindOf(t *testing.T) {
	next := Date{Year: 2026, Month: time.March, Day: 3}

	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "nil", err: nil, expected: KindNone},
		{name: "validation", err: &ValidationError{Field: "due_date", Reason: reasonMissing}, expected: KindValidation},
		{name: "item not found", err: ErrItemNotFound, expected: KindNotFound},
		{name: "borrower not found wrapped", err: fmt.Errorf("return: %w", ErrBorrowerNotFound), expected: KindNotFound},
		{name: "no active loan", err: ErrNoActiveLoan, expected: KindNotFound},
		{name: "unavailable", err: &UnavailableError{ItemCode: "B1", NextAvailable: &next}, expected: KindConflict},
		{name: "already on loan", err: ErrAlreadyOnLoan, expected: KindConflict},
		{name: "duplicate item code", err: ErrDuplicateItemCode, expected: KindDuplicate},
		{name: "consistency", err: &ConsistencyError{ItemCode: "B1", Detail: "overflow"}, expected: KindConsistency},
		{name: "canceled", err: errors.Join(ErrQueryFailed, context.Canceled), expected: KindCanceled},
		{name: "deadline", err: context.DeadlineExceeded, expected: KindCanceled},
		{name: "infrastructure", err: errors.Join(ErrCommitFailed, errors.New("connection reset")), expected: KindInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func Test_UnavailableError_Message(t *testing.T) {
	next := Date{Year: 2026, Month: time.March, Day: 3}

	assert.Equal(t, "item not available: B1 (next available 2026-03-03)", (&UnavailableError{ItemCode: "B1", NextAvailable: &next}).Error())
	assert.Equal(t, "item not available: B1", (&UnavailableError{ItemCode: "B1"}).Error())
}

func Test_IsBusinessFailure(t *testing.T) {
	assert.True(t, IsBusinessFailure(ErrNoActiveLoan))
	assert.True(t, IsBusinessFailure(&UnavailableError{ItemCode: "B1"}))
	assert.False(t, IsBusinessFailure(&ConsistencyError{ItemCode: "B1"}))
	assert.False(t, IsBusinessFailure(ErrBeginningTransactionFailed))
	assert.False(t, IsBusinessFailure(nil))
}
