package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	. "github.com/AntonStoeckl/library-lending-go/testutil/helper" //nolint:revive
	"github.com/AntonStoeckl/library-lending-go/testutil/helper/enginewrapper"
)

type recordedLog struct {
	message     string
	spanContext trace.SpanContext
}

type recordingLoggerProvider struct {
	embedded.LoggerProvider
	logger *recordingLogger
}

func (p *recordingLoggerProvider) Logger(string, ...log.LoggerOption) log.Logger {
	return p.logger
}

type recordingLogger struct {
	embedded.Logger

	mu      sync.Mutex
	records []recordedLog
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, recordedLog{
		message:     record.Body().AsString(),
		spanContext: trace.SpanContextFromContext(ctx),
	})
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func (l *recordingLogger) find(message string) (recordedLog, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, record := range l.records {
		if record.message == message {
			return record, true
		}
	}

	return recordedLog{}, false
}

func Test_OTel_Engine_Options_Correlate_Logs_With_Spans(t *testing.T) {
	// setup
	ctx := context.Background()
	spans := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	logger := &recordingLogger{}

	options := append(
		[]sqlengine.Option{sqlengine.WithClock(FixedClock("2026-03-01"))},
		otelEngineOptions(tracerProvider, meterProvider, &recordingLoggerProvider{logger: logger}, true)...,
	)
	engine := enginewrapper.CreateWrapperWithTestConfig(t, options...).Engine()
	GivenItem(t, ctx, engine, "B1", 1)

	// act
	_, err := engine.Issue(ctx, IssueRequest("B1", "Ada", "555-0100", "2026-03-10"))

	// assert
	require.NoError(t, err)

	record, found := logger.find("lending operation: issue")
	require.True(t, found, "the issue must be logged through the bridge")
	assert.True(t, record.spanContext.IsValid(), "the log record must carry the span of the issue")

	var issueSpan sdktrace.ReadOnlySpan
	for _, span := range spans.Ended() {
		if span.SpanContext().TraceID() == record.spanContext.TraceID() {
			issueSpan = span
		}
	}
	assert.NotNil(t, issueSpan, "the log record and the span must share a trace")

	var collected metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &collected))
	assert.NotEmpty(t, collected.ScopeMetrics)
}
