package sqlengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	. "github.com/AntonStoeckl/library-lending-go/testutil/helper" //nolint:revive
)

// cancelingLogger cancels a context as soon as the statement with the given message was executed.
type cancelingLogger struct {
	trigger string
	cancel  context.CancelFunc
}

func (l cancelingLogger) DebugContext(_ context.Context, msg string, _ ...any) {
	if msg == l.trigger {
		l.cancel()
	}
}

func (l cancelingLogger) InfoContext(_ context.Context, _ string, _ ...any)  {}
func (l cancelingLogger) WarnContext(_ context.Context, _ string, _ ...any)  {}
func (l cancelingLogger) ErrorContext(_ context.Context, _ string, _ ...any) {}

func Test_Issue_With_Canceled_Context_Does_Nothing(t *testing.T) {
	// arrange
	ctx := context.Background()
	engine, _ := createEngine(t)
	GivenItem(t, ctx, engine, "B1", 1)

	canceledCtx, cancel := context.WithCancel(ctx)
	cancel()

	// act
	_, err := engine.Issue(canceledCtx, IssueRequest("B1", "Xavier", "555-0001", "2026-03-10"))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, lending.KindCanceled, lending.KindOf(err))
	assert.Equal(t, 1, availableCopies(t, ctx, engine, "B1"))
}

func Test_Issue_Canceled_After_The_Loan_Insert_Is_Rolled_Back(t *testing.T) {
	// arrange
	ctx := context.Background()
	issueCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine, _ := createEngine(t, sqlengine.WithContextualLogger(cancelingLogger{
		trigger: "executed sql for: insert loan",
		cancel:  cancel,
	}))
	GivenItem(t, ctx, engine, "B1", 1)

	// act
	_, err := engine.Issue(issueCtx, IssueRequest("B1", "Xavier", "555-0001", "2026-03-10"))

	// assert
	require.Error(t, err)
	assert.Equal(t, 1, availableCopies(t, ctx, engine, "B1"))

	loans, loansErr := engine.CurrentLoans(ctx)
	require.NoError(t, loansErr)
	assert.Empty(t, loans)

	_, issueErr := engine.Issue(ctx, IssueRequest("B1", "Xavier", "555-0001", "2026-03-10"))
	assert.NoError(t, issueErr, "the connection and the item must be usable again")
}

func Test_Return_With_Canceled_Context_Keeps_The_Loan_Open(t *testing.T) {
	// arrange
	ctx := context.Background()
	engine, _ := createEngine(t)
	GivenItem(t, ctx, engine, "B1", 1)
	GivenIssued(t, ctx, engine, "B1", "Xavier", "555-0001", "2026-03-10")

	canceledCtx, cancel := context.WithCancel(ctx)
	cancel()

	// act
	_, err := engine.Return(canceledCtx, ReturnRequest("B1", "Xavier", "555-0001"))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, availableCopies(t, ctx, engine, "B1"))
}
