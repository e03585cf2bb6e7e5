package sqlengine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	. "github.com/AntonStoeckl/library-lending-go/testutil/helper" //nolint:revive
)

func Test_Observability_Successful_Issue(t *testing.T) {
	// arrange
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	metrics := NewMetricsCollectorSpy(true)
	tracing := NewTracingCollectorSpy(true)

	engine, _ := createEngine(t,
		sqlengine.WithLogger(slog.New(logHandler)),
		sqlengine.WithMetrics(metrics),
		sqlengine.WithTracing(tracing),
	)
	GivenItem(t, ctx, engine, "B1", 2)

	// act
	loan, err := engine.Issue(ctx, IssueRequest("B1", "Xavier", "555-0001", "2026-03-10"))

	// assert
	require.NoError(t, err)

	assert.True(t, logHandler.HasDebugLogWithMessage("executed sql for: lock item").WithDurationMS().Assert())
	assert.True(t, logHandler.HasDebugLogWithMessage("executed sql for: commit").Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage("lending operation: issue").
		WithDurationMS().
		WithAttribute("loan_id", loan.ID.String()).
		Assert())

	assert.True(t, metrics.HasDurationRecordForMetric("lending_operation_duration_seconds").
		WithOperation("issue").
		WithStatus("success").
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric("lending_operation_calls_total").
		WithOperation("issue").
		WithStatus("success").
		Assert())
	assert.True(t, metrics.HasValueRecordForMetric("lending_item_available_copies").
		WithLabel("item_code", "B1").
		WithValue(1).
		Assert())

	assert.True(t, tracing.HasSpanRecordForName("lending.issue").
		WithStatus("success").
		WithStartAttribute("item_code", "B1").
		WithEndAttribute("available_copies", "1").
		WithSpanAttribute("loan_id", loan.ID.String()).
		Assert())
}

func Test_Observability_Rejected_Issue(t *testing.T) {
	// arrange
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	metrics := NewMetricsCollectorSpy(true)
	tracing := NewTracingCollectorSpy(true)

	engine, _ := createEngine(t,
		sqlengine.WithContextualLogger(slog.New(logHandler)),
		sqlengine.WithMetrics(metrics),
		sqlengine.WithTracing(tracing),
	)
	GivenItem(t, ctx, engine, "B1", 1)
	GivenIssued(t, ctx, engine, "B1", "Xavier", "555-0001", "2026-03-10")

	// act
	_, err := engine.Issue(ctx, IssueRequest("B1", "Yara", "555-0002", "2026-03-10"))

	// assert
	require.Error(t, err)

	assert.True(t, logHandler.HasWarnLogWithMessage("lending operation rejected: issue").
		WithAttribute("error_type", "conflict").
		Assert())
	assert.True(t, logHandler.HasDebugLogWithMessage("executed sql for: rollback").Assert())

	assert.True(t, metrics.HasDurationRecordForMetric("lending_operation_duration_seconds").
		WithOperation("issue").
		WithStatus("rejected").
		Assert())
	assert.False(t, metrics.HasCounterRecordForMetric("lending_database_errors_total").Assert())

	assert.True(t, tracing.HasSpanRecordForName("lending.issue").
		WithStatus("error").
		WithEndAttribute("error_type", "conflict").
		Assert())
}

func Test_Observability_Consistency_Violation(t *testing.T) {
	// arrange
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	metrics := NewMetricsCollectorSpy(true)

	engine, wrapper := createEngine(t,
		sqlengine.WithLogger(slog.New(logHandler)),
		sqlengine.WithMetrics(metrics),
	)
	GivenItem(t, ctx, engine, "B1", 1)
	GivenIssued(t, ctx, engine, "B1", "Xavier", "555-0001", "2026-03-10")
	wrapper.Exec(t, "UPDATE items SET available_copies = total_copies WHERE code = 'B1'")

	// act
	_, err := engine.Return(ctx, ReturnRequest("B1", "Xavier", "555-0001"))

	// assert
	require.Error(t, err)

	assert.True(t, logHandler.HasErrorLogWithMessage("inventory consistency violated").
		WithAttribute("error_type", "consistency_error").
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric("lending_consistency_violations_total").
		WithOperation("return").
		Assert())
	assert.True(t, metrics.HasDurationRecordForMetric("lending_operation_duration_seconds").
		WithOperation("return").
		WithStatus("error").
		Assert())
}

func Test_Observability_Queries(t *testing.T) {
	// arrange
	ctx := context.Background()
	metrics := NewMetricsCollectorSpy(true)
	tracing := NewTracingCollectorSpy(true)

	engine, _ := createEngine(t,
		sqlengine.WithMetrics(metrics),
		sqlengine.WithTracing(tracing),
	)
	GivenItem(t, ctx, engine, "B1", 1)

	// act
	_, err := engine.ListItems(ctx)

	// assert
	require.NoError(t, err)

	assert.True(t, metrics.HasCounterRecordForMetric("lending_operation_calls_total").
		WithOperation("list_items").
		WithStatus("success").
		Assert())
	assert.True(t, tracing.HasSpanRecordForName("lending.query").
		WithStartAttribute("operation", "list_items").
		WithStartAttribute("consistency_level", "strong").
		WithEndAttribute("row_count", "1").
		Assert())
}
