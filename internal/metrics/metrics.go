package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	HTTPRequests      metric.Int64Counter
	HTTPDuration      metric.Float64Histogram
	Queries           metric.Int64Counter
	QueryDuration     metric.Float64Histogram
	DocumentsReturned metric.Int64Counter
	ActiveConnections metric.Int64UpDownCounter
}

func Setup(serviceName string) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"pharma_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"pharma_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.Queries, err = meter.Int64Counter(
		"pharma_queries_total",
		metric.WithDescription("Total number of MongoDB queries executed"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.QueryDuration, err = meter.Float64Histogram(
		"pharma_query_duration_seconds",
		metric.WithDescription("MongoDB query duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DocumentsReturned, err = meter.Int64Counter(
		"pharma_documents_returned_total",
		metric.WithDescription("Total number of documents returned to callers"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ActiveConnections, err = meter.Int64UpDownCounter(
		"pharma_mongo_connections",
		metric.WithDescription("Number of open MongoDB connections"),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := promhttp.Handler()
	return m, handler, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordQuery(ctx context.Context, database, collection, status string, duration time.Duration, documents int) {
	labels := metric.WithAttributes(
		attribute.String("database", database),
		attribute.String("collection", collection),
		attribute.String("status", status),
	)

	m.Queries.Add(ctx, 1, labels)
	m.QueryDuration.Record(ctx, duration.Seconds(), labels)
	if documents > 0 {
		m.DocumentsReturned.Add(ctx, int64(documents), labels)
	}
}

func (m *Metrics) IncrementConnections(ctx context.Context) {
	m.ActiveConnections.Add(ctx, 1)
}

func (m *Metrics) DecrementConnections(ctx context.Context) {
	m.ActiveConnections.Add(ctx, -1)
}
