// internal/catalog/instrumented.go
package catalog

import (
	"context"

	"scholarship-matcher/internal/common/logger"
	"scholarship-matcher/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FetchRecorder counts catalog fetches by provider and status.
type FetchRecorder interface {
	RecordCatalogFetch(ctx context.Context, provider, status string)
}

// Instrumented wraps a provider with a "catalog.Fetch" span and a fetch
// counter.
type Instrumented struct {
	inner    Provider
	tracer   trace.Tracer
	recorder FetchRecorder
	logger   logger.Logger
}

func Instrument(p Provider, tracer trace.Tracer, recorder FetchRecorder, log logger.Logger) *Instrumented {
	if tracer == nil {
		tracer = otel.Tracer("scholarship-matcher/catalog")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Instrumented{inner: p, tracer: tracer, recorder: recorder, logger: log}
}

func (i *Instrumented) Name() string { return i.inner.Name() }

func (i *Instrumented) Unwrap() Provider { return i.inner }

func (i *Instrumented) Ping(ctx context.Context) error {
	return Ping(ctx, i.inner)
}

func (i *Instrumented) Fetch(ctx context.Context) ([]models.ScholarshipRecord, error) {
	ctx, span := i.tracer.Start(ctx, "catalog.Fetch", trace.WithAttributes(
		attribute.String("catalog.provider", i.inner.Name()),
	))
	defer span.End()

	records, err := i.inner.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.record(ctx, "error")
		return nil, err
	}

	span.SetAttributes(attribute.Int("catalog.size", len(records)))
	i.record(ctx, "success")
	i.logger.Debug("catalog fetched", map[string]interface{}{
		"provider": i.inner.Name(),
		"records":  len(records),
	})
	return records, nil
}

func (i *Instrumented) record(ctx context.Context, status string) {
	if i.recorder != nil {
		i.recorder.RecordCatalogFetch(ctx, i.inner.Name(), status)
	}
}
