package sqlengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	metricOperationDuration     = "lending_operation_duration_seconds"
	metricOperationCalls        = "lending_operation_calls_total"
	metricDatabaseErrors        = "lending_database_errors_total"
	metricConsistencyViolations = "lending_consistency_violations_total"
	metricItemAvailableCopies   = "lending_item_available_copies"

	spanNameIssue   = "lending.issue"
	spanNameReturn  = "lending.return"
	spanNameQuery   = "lending.query"
	spanNameAddItem = "lending.add_item"

	operationIssue        = "issue"
	operationReturn       = "return"
	operationAddItem      = "add_item"
	operationItemByCode   = "item_by_code"
	operationListItems    = "list_items"
	operationSearchItems  = "search_items"
	operationSummary      = "summary"
	operationCurrentLoans = "current_loans"
	operationSchema       = "ensure_schema"

	statusSuccess  = "success"
	statusRejected = "rejected"
	statusError    = "error"

	labelOperation = "operation"
	labelStatus    = "status"
	labelErrorType = "error_type"
	labelItemCode  = "item_code"

	spanAttrOperation       = "operation"
	spanAttrItemCode        = "item_code"
	spanAttrErrorType       = "error_type"
	spanAttrDurationMS      = "duration_ms"
	spanAttrLoanID          = "loan_id"
	spanAttrAvailableCopies = "available_copies"
	spanAttrRowCount        = "row_count"
	spanAttrConsistency     = "consistency_level"

	logMsgSQLExecuted          = "executed sql for: "
	logMsgOperation            = "lending operation: "
	logMsgOperationRejected    = "lending operation rejected: "
	logMsgOperationFailed      = "lending operation failed: "
	logMsgConsistencyViolation = "inventory consistency violated"
	logMsgRollbackFailed       = "failed to roll back transaction"
	logMsgCloseRowsFailed      = "failed to close database rows"

	logAttrError      = "error"
	logAttrErrorType  = "error_type"
	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"
)

// operationObserver encapsulates the logging, metrics and tracing of one engine operation.
type operationObserver struct {
	e         Engine
	ctx       context.Context
	operation string
	span      lending.SpanContext
	start     time.Time
}

// startOperation starts the span for an operation and returns the context carrying it.
func (e Engine) startOperation(
	ctx context.Context,
	operation string,
	spanName string,
	attrs map[string]string,
) (*operationObserver, context.Context) {
	spanAttrs := map[string]string{spanAttrOperation: operation}
	for key, value := range attrs {
		spanAttrs[key] = value
	}

	var span lending.SpanContext
	if e.tracingCollector != nil {
		ctx, span = e.tracingCollector.StartSpan(ctx, spanName, spanAttrs)
	}

	return &operationObserver{
		e:         e,
		ctx:       ctx,
		operation: operation,
		span:      span,
		start:     time.Now(),
	}, ctx
}

// finishSuccess logs the completed operation, records its metrics and closes its span.
func (o *operationObserver) finishSuccess(attrs map[string]string, logArgs ...any) {
	duration := time.Since(o.start)

	o.e.logOperation(o.ctx, o.operation, append(logArgs, logAttrDurationMS, toMilliseconds(duration))...)
	o.e.recordOperation(o.ctx, o.operation, statusSuccess, duration)

	if o.span != nil {
		o.span.SetStatus(statusSuccess)
		o.span.AddAttribute(spanAttrDurationMS, formatMilliseconds(duration))

		for key, value := range attrs {
			o.span.AddAttribute(key, value)
		}

		o.e.tracingCollector.FinishSpan(o.span, statusSuccess, attrs)
	}
}

// finishError classifies err and reports it.
// Business failures are logged at warn level, everything else at error level.
func (o *operationObserver) finishError(err error) {
	duration := time.Since(o.start)
	kind := lending.KindOf(err)

	status := statusError
	if lending.IsBusinessFailure(err) {
		status = statusRejected
	}

	switch kind {
	case lending.KindValidation, lending.KindNotFound, lending.KindConflict, lending.KindDuplicate:
		o.e.logWarn(o.ctx, logMsgOperationRejected+o.operation, logAttrErrorType, kind.String(), logAttrError, err.Error())

	case lending.KindConsistency:
		o.e.logError(o.ctx, logMsgConsistencyViolation, err, logAttrErrorType, kind.String())
		o.e.incrementCounter(o.ctx, metricConsistencyViolations, map[string]string{labelOperation: o.operation})

	default:
		o.e.logError(o.ctx, logMsgOperationFailed+o.operation, err, logAttrErrorType, kind.String())
		o.e.incrementCounter(o.ctx, metricDatabaseErrors, map[string]string{
			labelOperation: o.operation,
			labelStatus:    statusError,
			labelErrorType: kind.String(),
		})
	}

	o.e.recordOperation(o.ctx, o.operation, status, duration)

	if o.span != nil {
		o.span.SetStatus(statusError)
		o.span.AddAttribute(spanAttrErrorType, kind.String())
		o.span.AddAttribute(spanAttrDurationMS, formatMilliseconds(duration))

		o.e.tracingCollector.FinishSpan(o.span, statusError, map[string]string{spanAttrErrorType: kind.String()})
	}
}

// recordOperation records the duration and the call counter of an operation.
func (e Engine) recordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operation,
		labelStatus:    status,
	}

	if contextualCollector, ok := e.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, metricOperationCalls, labels)

		return
	}

	e.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	e.metricsCollector.IncrementCounter(metricOperationCalls, labels)
}

// recordAvailableCopies publishes the available copy count of an item after a successful mutation.
func (e Engine) recordAvailableCopies(ctx context.Context, itemCode string, available int) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelItemCode: itemCode}

	if contextualCollector, ok := e.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricItemAvailableCopies, float64(available), labels)
		return
	}

	e.metricsCollector.RecordValue(metricItemAvailableCopies, float64(available), labels)
}

func (e Engine) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if e.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := e.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	e.metricsCollector.IncrementCounter(metric, labels)
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (e Engine) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if e.logger != nil {
		e.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level.
func (e Engine) logOperation(ctx context.Context, action string, args ...any) {
	if e.logger != nil {
		e.logger.Info(logMsgOperation+action, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

func (e Engine) logWarn(ctx context.Context, message string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(message, args...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// logError logs error information at the error level.
func (e Engine) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if e.logger != nil {
		e.logger.Error(message, allArgs...)
	}

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d.Nanoseconds())/1e6)
}
