package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/systematicmess/calendar-assistant/internal/config"
	"github.com/systematicmess/calendar-assistant/internal/pkg/logger"
)

const module = "tracer"

// InitTracer installs an OTLP HTTP exporter (Jaeger compatible) as the global
// tracer provider. Tracing is disabled unless OTEL_ENABLED=true; the returned
// shutdown func is always safe to call.
func InitTracer(ctx context.Context, cfg config.TracingConfig, log logger.ILogger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		log.Debug(module, "tracing disabled (set OTEL_ENABLED=true to enable)", nil)
		return noop
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Warn(module, "failed to create OTLP exporter, tracing disabled", map[string]interface{}{"error": err})
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	log.Info(module, "tracer initialized", map[string]interface{}{"endpoint": cfg.Endpoint})

	return tp.Shutdown
}
