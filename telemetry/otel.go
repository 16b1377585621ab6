package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/agentuity/go-memo/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
)

type ShutdownFunc func()

const exportTimeout = 10 * time.Second

// New exports logs and traces to the OTLP/HTTP collector at otlpServerURL
// and installs the tracer provider globally. The returned logger writes to
// console as well when console is non-nil.
func New(ctx context.Context, serviceName string, otlpServerURL string, authToken string, console logger.Logger) (context.Context, logger.Logger, ShutdownFunc, error) {
	oltpURL, err := url.Parse(otlpServerURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error parsing oltpServerURL: %w", err)
	}
	if oltpURL.Scheme != "http" && oltpURL.Scheme != "https" {
		return nil, nil, nil, fmt.Errorf("error parsing oltpServerURL: unsupported scheme %q", oltpURL.Scheme)
	}
	oltpURL.Path = "/v1/logs"
	logURL := oltpURL.String()
	oltpURL.Path = "/v1/traces"
	traceURL := oltpURL.String()
	insecure := oltpURL.Scheme == "http"

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),      // Discover and provide attributes from OTEL_RESOURCE_ATTRIBUTES and OTEL_SERVICE_NAME environment variables.
		resource.WithTelemetrySDK(), // Discover and provide information about the OpenTelemetry SDK used.
		resource.WithProcess(),      // Discover and provide process information.
		resource.WithOS(),           // Discover and provide OS information.
		resource.WithHost(),         // Discover and provide host information.
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		if console != nil {
			console.Warn("partial telemetry resource: %s", err)
		}
	} else if err != nil {
		return nil, nil, nil, fmt.Errorf("error creating resource: %w", err)
	}

	headers := make(map[string]string)
	if authToken != "" {
		headers["Authorization"] = "Bearer " + authToken
	}

	logExporterOpts := []otlploghttp.Option{
		otlploghttp.WithEndpointURL(logURL),
		otlploghttp.WithHeaders(headers),
		otlploghttp.WithTimeout(exportTimeout),
		otlploghttp.WithCompression(otlploghttp.GzipCompression),
	}
	traceExporterOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(traceURL),
		otlptracehttp.WithHeaders(headers),
		otlptracehttp.WithTimeout(exportTimeout),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}
	if insecure {
		logExporterOpts = append(logExporterOpts, otlploghttp.WithInsecure())
		traceExporterOpts = append(traceExporterOpts, otlptracehttp.WithInsecure())
	}

	logExporter, err := otlploghttp.New(ctx, logExporterOpts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error creating log exporter: %w", err)
	}
	traceExporter, err := otlptracehttp.New(ctx, traceExporterOpts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error creating trace exporter: %w", err)
	}

	logProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(traceProvider)

	var log logger.Logger = logger.NewOtelLogger(logProvider.Logger(serviceName), logger.LevelTrace)
	if console != nil {
		log = console.Stack(log)
	}

	return ctx, log, func() {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		traceProvider.Shutdown(ctx)
		logProvider.Shutdown(ctx)
	}, nil
}

// StartSpan starts a span and returns a logger tagged with its trace and span ids.
func StartSpan(ctx context.Context, log logger.Logger, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, logger.Logger, trace.Span) {
	ctx, span := tracer.Start(ctx, name, opts...)
	sc := span.SpanContext()
	if sc.IsValid() {
		log = log.With(map[string]interface{}{
			"trace_id": sc.TraceID().String(),
			"span_id":  sc.SpanID().String(),
		})
	}
	return ctx, log.WithContext(ctx), span
}
