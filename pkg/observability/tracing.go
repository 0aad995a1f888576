package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for enrichment runs.
const TracerName = "icd11map"

// Span attribute keys
const (
	AttrRunID     = "run_id"
	AttrStage     = "stage"
	AttrPath      = "path"
	AttrRows      = "rows"
	AttrRowsFound = "rows_mapped"
	AttrErrorCode = "error_code"
)

// Span names
const (
	SpanRun         = "icd11map.run"
	SpanLoadIndexes = "icd11map.stage.load_indexes"
	SpanReadInput   = "icd11map.stage.read_input"
	SpanEnrichRows  = "icd11map.stage.enrich_rows"
	SpanWriteOutput = "icd11map.stage.write_output"
)

// Tracer wraps the global OpenTelemetry tracer. Without an installed
// provider every span is a no-op.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// NewTracerWithProvider creates a tracer from an explicit provider.
func NewTracerWithProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartRunSpan starts the root span of a run.
func (t *Tracer) StartRunSpan(ctx context.Context, runID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanRun,
		trace.WithAttributes(attribute.String(AttrRunID, runID)),
	)
}

// StartStageSpan starts a span for one stage of a run.
func (t *Tracer) StartStageSpan(ctx context.Context, name, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String(AttrStage, stage)),
	)
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error, errorCode string) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errorCode != "" {
			span.SetAttributes(attribute.String(AttrErrorCode, errorCode))
		}
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// SetFileAttributes records the file a stage read or wrote and its row count.
func SetFileAttributes(span trace.Span, path string, rows int) {
	span.SetAttributes(
		attribute.String(AttrPath, path),
		attribute.Int(AttrRows, rows),
	)
}

// SetRowCounts records how many rows a stage processed and mapped.
func SetRowCounts(span trace.Span, rows, mapped int) {
	span.SetAttributes(
		attribute.Int(AttrRows, rows),
		attribute.Int(AttrRowsFound, mapped),
	)
}
