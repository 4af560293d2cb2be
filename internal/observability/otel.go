package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resumegrade/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultCollectionInterval = 15 * time.Second

// ObservabilityManager owns the tracer and meter providers for one process
type ObservabilityManager struct {
	config     ObservabilityConfig
	metricsCfg config.MetricsConfig
	otlp       config.OTLPConfig

	resource       *resource.Resource
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager builds the providers described by obsConfig.
// fullConfig supplies the OTLP target and the instrument switches; when nil
// every instrument records and nothing is sent over OTLP.
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	om := &ObservabilityManager{
		config:     obsConfig,
		metricsCfg: allMetrics(),
	}
	if fullConfig != nil {
		om.metricsCfg = fullConfig.Observability.Metrics
		om.otlp = fullConfig.Observability.OTLP
	}
	if !obsConfig.Enabled {
		return om, nil
	}

	res, err := om.buildResource()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}
	om.resource = res

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(); err != nil {
		_ = om.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

func allMetrics() config.MetricsConfig {
	return config.MetricsConfig{
		CollectionInterval: defaultCollectionInterval,
		AIDuration:         true,
		TokenUsage:         true,
		Reviews:            true,
		Scores:             true,
		Extractions:        true,
		RateLimits:         true,
	}
}

func (om *ObservabilityManager) buildResource() (*resource.Resource, error) {
	instance := om.config.ServiceInstance
	if instance == "" {
		instance = om.config.ServiceName + "-1"
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			semconv.ServiceInstanceID(instance),
		),
	)
}

// initTracing samples by trace ID and batches to every configured exporter.
// With no exporter spans still propagate but go nowhere.
func (om *ObservabilityManager) initTracing() error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(om.resource),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(om.config.SampleRate))),
	}

	if om.config.ConsoleOutput {
		var stdoutOpts []stdouttrace.Option
		if om.config.PrettyPrint {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithPrettyPrint())
		}
		exporter, err := stdouttrace.New(stdoutOpts...)
		if err != nil {
			return fmt.Errorf("failed to create console trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	if om.otlp.Enabled {
		traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(om.otlp.Endpoint)}
		if om.otlp.Insecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		}
		if len(om.otlp.Headers) > 0 {
			traceOpts = append(traceOpts, otlptracehttp.WithHeaders(om.otlp.Headers))
		}
		exporter, err := otlptracehttp.New(context.Background(), traceOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.metricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	metrics, err := newMetrics(mp.Meter(om.config.ServiceName), om.Tracer("resumegrade.review"), om.metricsCfg)
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

// metricReaders returns one reader per configured sink, or a manual reader
// so instruments stay valid when nothing exports
func (om *ObservabilityManager) metricReaders() ([]sdkmetric.Reader, error) {
	interval := om.metricsCfg.CollectionInterval
	if interval <= 0 {
		interval = defaultCollectionInterval
	}

	var readers []sdkmetric.Reader

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.otlp.Enabled {
		metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(om.otlp.Endpoint)}
		if om.otlp.Insecure {
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}
		if len(om.otlp.Headers) > 0 {
			metricOpts = append(metricOpts, otlpmetrichttp.WithHeaders(om.otlp.Headers))
		}
		exporter, err := otlpmetrichttp.New(context.Background(), metricOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.config.Prometheus.Enabled {
		prom, err := newPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, err
		}
		if err := prom.start(); err != nil {
			return nil, err
		}
		readers = append(readers, prom.reader)
		om.shutdownFuncs = append(om.shutdownFuncs, prom.shutdown)
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

// GetMetrics returns the review instruments. A disabled manager returns a
// Metrics whose methods only run the wrapped work.
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// HTTPMiddleware wraps the whole handler with otelhttp server instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if om == nil || !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	)
}

// Tracer returns a named tracer, or a no-op one when disabled
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om == nil || om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown flushes and stops every provider and exporter, newest first
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	if om == nil {
		return nil
	}
	var errs []error
	for i := len(om.shutdownFuncs) - 1; i >= 0; i-- {
		if err := om.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	om.shutdownFuncs = nil
	return errors.Join(errs...)
}
