package sqlengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	. "github.com/AntonStoeckl/library-lending-go/testutil/helper" //nolint:revive
)

func Test_Return_Closes_The_Open_Loan(t *testing.T) {
	// arrange
	ctx := context.Background()
	engine, _ := createEngine(t)
	GivenItem(t, ctx, engine, "B1", 1)
	issued := GivenIssued(t, ctx, engine, "B1", "Xavier", "555-0001", "2026-03-10")

	// act
	returned, err := engine.Return(ctx, ReturnRequest(" B1 ", "Xavier", "555-0001"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, issued.ID, returned.ID)
	assert.Equal(t, issued.DueDate, returned.DueDate)
	require.NotNil(t, returned.ReturnedDate)
	assert.Equal(t, today, returned.ReturnedDate.String())
	assert.Equal(t, 1, availableCopies(t, ctx, engine, "B1"))

	loans, loansErr := engine.CurrentLoans(ctx)
	require.NoError(t, loansErr)
	assert.Empty(t, loans)
}

func Test_Return_Then_Issue_Again(t *testing.T) {
	// arrange
	ctx := context.Background()
	engine, _ := createEngine(t)
	GivenItem(t, ctx, engine, "B1", 1)
	GivenIssued(t, ctx, engine, "B1", "Xavier", "555-0001", "2026-03-10")

	// act
	_, returnErr := engine.Return(ctx, ReturnRequest("B1", "Xavier", "555-0001"))
	_, issueErr := engine.Issue(ctx, IssueRequest("B1", "Xavier", "555-0001", "2026-03-20"))

	// assert
	require.NoError(t, returnErr)
	require.NoError(t, issueErr)
	assert.Equal(t, 0, availableCopies(t, ctx, engine, "B1"))
}

func Test_Return_Without_Open_Loan_Changes_Nothing(t *testing.T) {
	// arrange
	ctx := context.Background()
	engine, _ := createEngine(t)
	GivenItem(t, ctx, engine, "B1", 2)
	GivenIssued(t, ctx, engine, "B1", "Yara", "555-0002", "2026-03-10")
	GivenItem(t, ctx, engine, "B2", 1)
	GivenIssued(t, ctx, engine, "B2", "Xavier", "555-0001", "2026-03-10")

	// act
	_, err := engine.Return(ctx, ReturnRequest("B1", "Xavier", "555-0001"))

	// assert
	assert.ErrorIs(t, err, lending.ErrNoActiveLoan)
	assert.Equal(t, lending.KindNotFound, lending.KindOf(err))
	assert.Equal(t, 1, availableCopies(t, ctx, engine, "B1"))

	loans, loansErr := engine.CurrentLoans(ctx)
	require.NoError(t, loansErr)
	assert.Len(t, loans, 2)
}

func Test_Return_Fails_For_Unknown_Item_Or_Borrower(t *testing.T) {
	ctx := context.Background()
	engine, _ := createEngine(t)
	GivenItem(t, ctx, engine, "B1", 1)
	GivenIssued(t, ctx, engine, "B1", "Xavier", "555-0001", "2026-03-10")

	testCases := []struct {
		name        string
		request     lending.ReturnRequest
		expectedErr error
	}{
		{
			name:        "unknown item",
			request:     ReturnRequest("NOPE", "Xavier", "555-0001"),
			expectedErr: lending.ErrItemNotFound,
		},
		{
			name:        "unknown contact id",
			request:     ReturnRequest("B1", "Xavier", "555-9999"),
			expectedErr: lending.ErrBorrowerNotFound,
		},
		{
			name:        "name does not match",
			request:     ReturnRequest("B1", "xavier", "555-0001"),
			expectedErr: lending.ErrBorrowerNotFound,
		},
		{
			name:        "missing name",
			request:     ReturnRequest("B1", "", "555-0001"),
			expectedErr: lending.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := engine.Return(ctx, tc.request)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, 0, availableCopies(t, ctx, engine, "B1"))
		})
	}
}

func Test_Return_Refuses_To_Exceed_Total_Copies(t *testing.T) {
	// arrange
	ctx := context.Background()
	engine, wrapper := createEngine(t)
	GivenItem(t, ctx, engine, "B1", 1)
	GivenIssued(t, ctx, engine, "B1", "Xavier", "555-0001", "2026-03-10")
	wrapper.Exec(t, "UPDATE items SET available_copies = total_copies WHERE code = 'B1'")

	// act
	_, err := engine.Return(ctx, ReturnRequest("B1", "Xavier", "555-0001"))

	// assert
	var consistencyErr *lending.ConsistencyError
	require.ErrorAs(t, err, &consistencyErr)
	assert.Equal(t, "B1", consistencyErr.ItemCode)
	assert.False(t, lending.IsBusinessFailure(err))

	loans, loansErr := engine.CurrentLoans(ctx)
	require.NoError(t, loansErr)
	assert.Len(t, loans, 1, "the loan must stay open")
}
