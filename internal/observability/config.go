package observability

import (
	"net/http"

	"resumegrade/internal/config"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// ObservabilityConfig is the resolved manager configuration
type ObservabilityConfig struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	PrettyPrint     bool
	SampleRate      float64
	Prometheus      PrometheusConfig
}

// GetObservabilityConfig resolves the manager configuration. A nil cfg gives
// console output with full sampling, which is what tests and one-off runs want.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:     "resumegrade",
			ServiceVersion:  version,
			ServiceInstance: "resumegrade-1",
			Enabled:         true,
			ConsoleOutput:   true,
			PrettyPrint:     true,
			SampleRate:      1.0,
			Prometheus:      GetPrometheusConfig(nil),
		}
	}

	obs := cfg.Observability
	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:     obs.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obs.ServiceInstance,
		Enabled:         obs.Enabled,
		ConsoleOutput:   obs.Console.Enabled,
		PrettyPrint:     obs.Console.PrettyPrint,
		SampleRate:      obs.SampleRate,
		Prometheus:      GetPrometheusConfig(cfg),
	}
}

// ObservabilityMiddleware opens a span named after the matched route so
// review calls nest under the API request that started them
func ObservabilityMiddleware(om *ObservabilityManager) func(next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
		if om == nil || !om.config.Enabled {
			return next
		}
		tracer := om.Tracer("resumegrade.http")
		return func(w http.ResponseWriter, r *http.Request) {
			route := r.Pattern
			if route == "" {
				route = r.Method + " " + r.URL.Path
			}
			ctx, span := tracer.Start(r.Context(), route, oteltrace.WithSpanKind(oteltrace.SpanKindServer))
			defer span.End()

			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.String("http.request.method", r.Method),
				attribute.Int64("http.request.content_length", r.ContentLength),
				attribute.String("user_agent.original", r.UserAgent()),
			)

			next(w, r.WithContext(ctx))
		}
	}
}
