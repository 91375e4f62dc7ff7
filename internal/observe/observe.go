// Package observe configures OpenTelemetry tracing and metrics for the
// bridge, and wraps HTTP handlers and transports with instrumentation.
package observe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/supremecars/token-bridge/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes and releases telemetry resources.
type ShutdownFunc func(context.Context) error

// Configure bootstraps the OTel SDK according to configuration. When
// disabled, a no-op shutdown is returned and the global providers are left
// untouched.
func Configure(ctx context.Context, cfg config.ObserveConfig) (ShutdownFunc, error) {
	if !cfg.Enabled {
		log.Info().Msg("telemetry: disabled")
		return func(context.Context) error { return nil }, nil
	}

	// route OTel SDK diagnostics through zerolog
	sdkLogger := log.Logger.Level(sdkLogLevel(cfg.SDKLogLevel))
	otel.SetLogger(zerologr.New(&sdkLogger))

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource configuration failed: %w", err)
	}

	var shutdowns []ShutdownFunc

	tracerProvider, err := configureTracing(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	shutdowns = append(shutdowns, tracerProvider.Shutdown)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.MetricsEnabled {
		meterProvider, err := configureMetrics(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		shutdowns = append(shutdowns, meterProvider.Shutdown)

		otel.SetMeterProvider(meterProvider)
	}

	return func(ctx context.Context) error {
		var failure error
		for _, shutdown := range shutdowns {
			if err := shutdown(ctx); err != nil {
				failure = err
			}
		}
		return failure
	}, nil
}

func configureTracing(ctx context.Context, cfg config.ObserveConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch cfg.Type {
	case "grpc":
		exporter, err = otlptracegrpc.New(ctx)
	case "stdout":
		exporter, err = stdouttrace.New()
	default:
		err = fmt.Errorf("unknown observe type: %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("trace exporter configuration failed: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(time.Duration(cfg.TraceBatchTimeoutSeconds)*time.Second),
		),
	)

	return provider, nil
}

func configureMetrics(ctx context.Context, cfg config.ObserveConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var (
		exporter sdkmetric.Exporter
		err      error
	)

	switch cfg.Type {
	case "grpc":
		exporter, err = otlpmetricgrpc.New(ctx)
	case "stdout":
		exporter, err = stdoutmetric.New()
	default:
		err = fmt.Errorf("unknown observe type: %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("metric exporter configuration failed: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(time.Duration(cfg.MetricReadIntervalSeconds)*time.Second),
		)),
	)

	return provider, nil
}

// HTTPTransport wraps the supplied transport with OTel instrumentation when
// enabled, optionally including connection-level client tracing.
func HTTPTransport(base http.RoundTripper, cfg config.ObserveConfig) http.RoundTripper {
	if !cfg.Enabled || !cfg.HTTPTransportEnabled {
		return base
	}

	opts := []otelhttp.Option{}
	if cfg.HTTPConnectionTraceEnabled {
		opts = append(opts, otelhttp.WithClientTrace(
			func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			},
		))
	}

	return otelhttp.NewTransport(base, opts...)
}

func sdkLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
