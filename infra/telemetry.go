package infra

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/cutroom/cutroom-media-service/config"
)

// Telemetry bundles the OTLP providers. Everything is optional: with no
// endpoint configured InitTelemetry returns nil and logging falls back to
// stdout.
type Telemetry struct {
	LoggerProvider *sdklog.LoggerProvider
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

func InitTelemetry(ctx context.Context, cfg *config.EnvConfig) *Telemetry {
	endpoint := cfg.Telemetry.OTLPEndpoint
	if endpoint == "" {
		return nil
	}

	res := sdkresource.NewSchemaless(
		attribute.String("service.name", cfg.Telemetry.ServiceName),
		attribute.String("deployment.environment", cfg.Environment.Mode),
	)

	logExp, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(endpoint),
		otlploghttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("Warning: OTLP log exporter init failed: %v", err)
		return nil
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)

	traceExp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("Warning: OTLP trace exporter init failed: %v", err)
		return &Telemetry{LoggerProvider: loggerProvider}
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	metricExp, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("Warning: OTLP metric exporter init failed: %v", err)
		return &Telemetry{LoggerProvider: loggerProvider, TracerProvider: tracerProvider}
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		log.Printf("Warning: runtime instrumentation failed: %v", err)
	}

	return &Telemetry{
		LoggerProvider: loggerProvider,
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	}
}

func (t *Telemetry) Shutdown(ctx context.Context) {
	if t == nil {
		return
	}
	if t.LoggerProvider != nil {
		_ = t.LoggerProvider.Shutdown(ctx)
	}
	if t.TracerProvider != nil {
		_ = t.TracerProvider.Shutdown(ctx)
	}
	if t.MeterProvider != nil {
		_ = t.MeterProvider.Shutdown(ctx)
	}
}
