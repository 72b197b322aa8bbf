// ABOUTME: OpenTelemetry SDK setup with a Prometheus bridge
// ABOUTME: Builds the meter provider and the /metrics HTTP handler
package observe

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/PpiNeaPpLe/livevoice/internal/version"
)

// ProviderConfig configures the OpenTelemetry SDK providers.
type ProviderConfig struct {
	// ServiceName defaults to the product name.
	ServiceName string

	// ServiceVersion defaults to the build version.
	ServiceVersion string
}

// Provider is an initialised meter provider whose metrics are scraped
// through Handler.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	shutdownFuncs []func(context.Context) error
}

// InitProvider sets up a MeterProvider backed by a Prometheus exporter on a
// private registry and registers it as the global provider. Call Shutdown
// in a defer from main().
func InitProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = version.Product
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = version.Version
	}

	// Schemaless service attributes merge cleanly with the SDK detector's
	// schema URL.
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(mp)

	return &Provider{
		MeterProvider: mp,
		registry:      registry,
		shutdownFuncs: []func(context.Context) error{mp.Shutdown},
	}, nil
}

// Handler serves the registry in the Prometheus text format
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and closes exporters
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdownFuncs {
		if e := fn(ctx); e != nil {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}
