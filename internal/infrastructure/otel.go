package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName    = "cityscope"
	ServiceVersion = "1.0.0"
	MeterName      = "cityscope"
)

// OTelProviders holds the initialized OpenTelemetry components
type OTelProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up the OpenTelemetry meter provider with the
// Prometheus exporter. The returned PrometheusHTTP handler serves the
// scrape endpoint.
func InitializeOTel(logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	res, err := createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// dedicated registry so repeated initialization never collides
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	providers := &OTelProviders{
		MeterProvider:  meterProvider,
		Meter:          meterProvider.Meter(MeterName),
		PrometheusHTTP: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:         logger,
	}

	logger.InfoContext(ctx, "OpenTelemetry metrics initialized",
		slog.String("service", ServiceName),
		slog.String("exporter", "prometheus"))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource() (*resource.Resource, error) {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("service.instance.id", hostname),
	), nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}
	return nil
}

// RequestMetrics holds the HTTP request instruments
type RequestMetrics struct {
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram
	DatasetLoads    metric.Int64Counter
}

// CreateRequestMetrics creates the HTTP and dataset instruments
func CreateRequestMetrics(meter metric.Meter) (*RequestMetrics, error) {
	requestCount, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	datasetLoads, err := meter.Int64Counter(
		"dataset_loads_total",
		metric.WithDescription("Total number of dataset file loads"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset load counter: %w", err)
	}

	return &RequestMetrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		DatasetLoads:    datasetLoads,
	}, nil
}

// RecordRequest records one completed HTTP request
func (m *RequestMetrics) RecordRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	m.RequestCount.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDatasetLoad records one dataset file load attempt
func (m *RequestMetrics) RecordDatasetLoad(ctx context.Context, dataset string, success bool) {
	if m == nil {
		return
	}
	m.DatasetLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dataset", dataset),
		attribute.Bool("success", success),
	))
}
