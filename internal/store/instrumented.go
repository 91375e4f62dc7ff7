package store

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	metricsOnce     sync.Once
	storeOperations metric.Int64Counter
	storeDuration   metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/supremecars/token-bridge/internal/store")

		var err error
		storeOperations, err = meter.Int64Counter(
			"token_store.operations",
			metric.WithDescription("Total token store operations"),
		)
		if err != nil {
			otel.Handle(err)
		}

		storeDuration, err = meter.Float64Histogram(
			"token_store.operation.duration",
			metric.WithDescription("Token store operation duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Instrumented wraps a TokenStore with metrics instrumentation.
type Instrumented struct {
	wrapped   TokenStore
	storeType string
}

// NewInstrumented creates an instrumented store wrapper.
func NewInstrumented(s TokenStore, storeType string) *Instrumented {
	initMetrics()
	return &Instrumented{
		wrapped:   s,
		storeType: storeType,
	}
}

// Lookup retrieves an unexpired record, recording hit/miss/error status.
func (i *Instrumented) Lookup(ctx context.Context, key Key) (Record, bool, error) {
	start := time.Now()

	record, found, err := i.wrapped.Lookup(ctx, key)

	duration := time.Since(start)
	i.recordDuration(ctx, "lookup", duration)

	status := "miss"
	if err != nil {
		status = "error"
	} else if found {
		status = "hit"
	}
	i.recordOperation(ctx, "lookup", status)
	i.setSpanAttributes(ctx, "lookup", status, duration)

	return record, found, err
}

// Upsert persists a record, recording success/error status.
func (i *Instrumented) Upsert(ctx context.Context, key Key, record Record) error {
	start := time.Now()

	err := i.wrapped.Upsert(ctx, key, record)

	duration := time.Since(start)
	i.recordDuration(ctx, "upsert", duration)

	status := "success"
	if err != nil {
		status = "error"
	}
	i.recordOperation(ctx, "upsert", status)
	i.setSpanAttributes(ctx, "upsert", status, duration)

	return err
}

// Close releases any resources held by the wrapped store.
func (i *Instrumented) Close() error {
	return i.wrapped.Close()
}

func (i *Instrumented) recordOperation(ctx context.Context, operation, status string) {
	if storeOperations == nil {
		return
	}
	storeOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("store.type", i.storeType),
			attribute.String("store.operation", operation),
			attribute.String("store.status", status),
		),
	)
}

func (i *Instrumented) recordDuration(ctx context.Context, operation string, duration time.Duration) {
	if storeDuration == nil {
		return
	}
	storeDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("store.type", i.storeType),
			attribute.String("store.operation", operation),
		),
	)
}

func (i *Instrumented) setSpanAttributes(ctx context.Context, operation, status string, duration time.Duration) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("store.type", i.storeType),
		attribute.String("store."+operation+".status", status),
		attribute.Float64("store."+operation+".duration", duration.Seconds()),
	)
}
