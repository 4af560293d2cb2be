package observability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"resumegrade/internal/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds the scrape listener settings
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// GetPrometheusConfig reads the scrape settings, falling back to :9090/metrics
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg == nil {
		return PrometheusConfig{Enabled: false, Endpoint: "/metrics", Port: "9090"}
	}
	p := cfg.Observability.Prometheus
	if p.Endpoint == "" {
		p.Endpoint = "/metrics"
	}
	return PrometheusConfig{Enabled: p.Enabled, Endpoint: p.Endpoint, Port: p.Port}
}

// prometheusExporter bundles the metric reader with the listener serving it.
// It uses its own registry so test runs never collide on the default one.
type prometheusExporter struct {
	reader   sdkmetric.Reader
	registry *promclient.Registry
	server   *http.Server
}

// newPrometheusExporter registers the OpenTelemetry bridge and Go runtime
// collectors on a private registry
func newPrometheusExporter(cfg PrometheusConfig) (*prometheusExporter, error) {
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reader, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &prometheusExporter{
		reader:   reader,
		registry: registry,
		server: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// start binds the listener synchronously so a taken port fails startup
func (p *prometheusExporter) start() error {
	ln, err := net.Listen("tcp", p.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for Prometheus scrapes on %s: %w", p.server.Addr, err)
	}
	log.Printf("[OBSERVABILITY] Prometheus metrics at http://localhost%s", p.server.Addr)

	go func() {
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[OBSERVABILITY] Prometheus server error: %v", err)
		}
	}()
	return nil
}

func (p *prometheusExporter) shutdown(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}
