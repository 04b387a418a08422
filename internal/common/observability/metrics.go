package observability

import (
	"context"
	"time"

	"scholarship-matcher/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	matchCounter   otelmetric.Int64Counter
	matchDuration  otelmetric.Float64Histogram
	fetchCounter   otelmetric.Int64Counter
}

type options struct {
	registerer promclient.Registerer
	processors []sdktrace.SpanProcessor
	logger     logger.Logger
	global     bool
}

type Option func(*options)

// WithRegisterer sends the otel instruments to reg instead of the default
// Prometheus registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanProcessor attaches sp to the tracer provider.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, sp) }
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// AsGlobal installs the providers with otel.SetMeterProvider and
// otel.SetTracerProvider.
func AsGlobal() Option {
	return func(o *options) { o.global = true }
}

func New(serviceName string, opts ...Option) *Observability {
	cfg := options{logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	tpOpts := make([]sdktrace.TracerProviderOption, 0, len(cfg.processors))
	for _, sp := range cfg.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	if cfg.global {
		otel.SetTracerProvider(tracerProvider)
	}

	o := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	// Scrapers without UTF-8 support reject dotted metric names.
	exporterOpts := []prometheus.Option{
		prometheus.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithSuffixes),
	}
	if cfg.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(cfg.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		cfg.logger.Warn("failed to create prometheus exporter, otel metrics disabled", map[string]interface{}{
			"error": err,
		})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	if cfg.global {
		otel.SetMeterProvider(provider)
	}

	meter := provider.Meter(serviceName)

	matchCounter, _ := meter.Int64Counter(
		"scholarship.matches",
		otelmetric.WithDescription("Number of match passes"),
	)

	matchDuration, _ := meter.Float64Histogram(
		"scholarship.match.duration",
		otelmetric.WithDescription("Match pass duration"),
		otelmetric.WithUnit("ms"),
	)

	fetchCounter, _ := meter.Int64Counter(
		"scholarship.catalog.fetches",
		otelmetric.WithDescription("Number of catalog fetches"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.matchCounter = matchCounter
	o.matchDuration = matchDuration
	o.fetchCounter = fetchCounter
	return o
}

func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("scholarship-matcher")
	}
	return o.tracer
}

func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return o.Tracer().Start(ctx, name)
}

func (o *Observability) RecordMatch(ctx context.Context, outcome string, duration time.Duration, returned int) {
	if o == nil {
		return
	}
	if o.matchCounter != nil {
		o.matchCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
	if o.matchDuration != nil {
		o.matchDuration.Record(ctx, float64(duration.Microseconds())/1000, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.Int("returned", returned),
		))
	}
}

func (o *Observability) RecordCatalogFetch(ctx context.Context, provider, status string) {
	if o == nil || o.fetchCounter == nil {
		return
	}
	o.fetchCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
