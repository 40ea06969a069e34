package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartDBSpan starts a span for database operations
func StartDBSpan(ctx context.Context, system, operation, table string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("DB %s %s", operation, table),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		),
	)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			Operation(operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SyncMetrics holds party synchronization metrics
type SyncMetrics struct {
	syncOperations metric.Int64Counter
	leftoverOps    metric.Int64Counter
	photoOps       metric.Int64Counter
	claims         metric.Int64Counter
}

// NewSyncMetrics creates synchronization metrics instruments
func NewSyncMetrics() (*SyncMetrics, error) {
	meter := otel.Meter(instrumentationName)

	syncOperations, err := meter.Int64Counter(
		"leftovers.party.syncs",
		metric.WithDescription("Total number of party synchronizations"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, err
	}

	leftoverOps, err := meter.Int64Counter(
		"leftovers.leftover.changes",
		metric.WithDescription("Leftovers created, updated or deleted by synchronization"),
		metric.WithUnit("{leftovers}"),
	)
	if err != nil {
		return nil, err
	}

	photoOps, err := meter.Int64Counter(
		"leftovers.photo.operations",
		metric.WithDescription("Photo store operations by outcome"),
		metric.WithUnit("{photos}"),
	)
	if err != nil {
		return nil, err
	}

	claims, err := meter.Int64Counter(
		"leftovers.leftover.claims",
		metric.WithDescription("Owner updates on single leftovers"),
		metric.WithUnit("{claims}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncOperations: syncOperations,
		leftoverOps:    leftoverOps,
		photoOps:       photoOps,
		claims:         claims,
	}, nil
}

// RecordSync records one synchronization and its leftover changes
func (m *SyncMetrics) RecordSync(ctx context.Context, created, updated, deleted int, success bool) {
	if m == nil {
		return
	}
	m.syncOperations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if !success {
		return
	}
	m.leftoverOps.Add(ctx, int64(created), metric.WithAttributes(attribute.String("change", "created")))
	m.leftoverOps.Add(ctx, int64(updated), metric.WithAttributes(attribute.String("change", "updated")))
	m.leftoverOps.Add(ctx, int64(deleted), metric.WithAttributes(attribute.String("change", "deleted")))
}

// RecordPhoto records a photo store operation: stored, removed or orphaned
func (m *SyncMetrics) RecordPhoto(ctx context.Context, outcome string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.photoOps.Add(ctx, int64(count), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordClaim records an owner update
func (m *SyncMetrics) RecordClaim(ctx context.Context, unclaim bool) {
	if m == nil {
		return
	}
	m.claims.Add(ctx, 1, metric.WithAttributes(attribute.Bool("unclaim", unclaim)))
}
