// internal/common/observability/observability.go
package observability

import (
	"context"
	"errors"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mergington-activities/internal/common/logger"
)

type Settings struct {
	ServiceName    string
	TracingEnabled bool
	// Registerer receives the metric exporter; nil means the default registry.
	Registerer promclient.Registerer
	Logger     logger.Logger
}

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	opCounter      otelmetric.Int64Counter
	opDuration     otelmetric.Float64Histogram
}

func New(s Settings) (*Observability, error) {
	if s.Logger == nil {
		s.Logger = logger.NewNoOpLogger()
	}
	if s.Registerer == nil {
		s.Registerer = promclient.DefaultRegisterer
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(s.Registerer))
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", s.ServiceName))
	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	meter := mp.Meter(s.ServiceName)
	opCounter, err := meter.Int64Counter(
		"registry.operations",
		otelmetric.WithDescription("Number of registry operations"),
	)
	if err != nil {
		return nil, err
	}
	opDuration, err := meter.Float64Histogram(
		"registry.operation.duration",
		otelmetric.WithDescription("Registry operation duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	o := &Observability{
		meterProvider: mp,
		tracer:        noop.NewTracerProvider().Tracer(s.ServiceName),
		opCounter:     opCounter,
		opDuration:    opDuration,
	}

	if s.TracingEnabled {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(&logExporter{log: s.Logger}),
		)
		otel.SetTracerProvider(tp)
		o.tracerProvider = tp
		o.tracer = tp.Tracer(s.ServiceName)
	}

	return o, nil
}

// Tracer returns a no-op tracer unless tracing is enabled.
func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}

func (o *Observability) RecordOperation(ctx context.Context, operation, result string, elapsed time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	)
	o.opCounter.Add(ctx, 1, attrs)
	o.opDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// Shutdown flushes pending spans and stops both providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// logExporter writes finished spans to the structured log at debug level.
type logExporter struct {
	log logger.Logger
}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := map[string]interface{}{
			"traceId":    s.SpanContext().TraceID().String(),
			"spanId":     s.SpanContext().SpanID().String(),
			"durationMs": s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status":     s.Status().Code.String(),
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		e.log.Debug(s.Name(), fields)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error { return nil }
