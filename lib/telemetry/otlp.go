package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var ErrUnknownProtocol = errors.New("unknown otlp protocol")

// Protocol is the transport an otlp exporter speaks.
type Protocol string

const (
	ProtocolGrpc Protocol = "grpc"
	ProtocolHttp Protocol = "http"
)

// OtlpConnConfig is where one signal is exported to. An empty protocol means
// http, an empty endpoint leaves the exporter's default (and the OTEL_*
// environment variables) in charge.
type OtlpConnConfig struct {
	Protocol Protocol          `json:"protocol"`
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
}

func (c OtlpConnConfig) protocol() Protocol {
	if c.Protocol == "" {
		return ProtocolHttp
	}
	return c.Protocol
}

type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
	// Resource holds extra resource attributes, e.g. deployment.environment.
	Resource map[string]string `json:"resource"`
}

func newResource(serviceName string, config Config, runAttrs ...attribute.KeyValue) (*resource.Resource, error) {
	keys := make([]string, 0, len(config.Resource))
	for key := range config.Resource {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var attrs []attribute.KeyValue
	for _, key := range keys {
		attrs = append(attrs, attribute.String(key, config.Resource[key]))
	}
	attrs = append(attrs, semconv.ServiceName(serviceName))
	attrs = append(attrs, runAttrs...)

	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
}

type exporterFactory[T any] func(ctx context.Context, endpoint string, headers map[string]string) (T, error)

var traceExporters = map[Protocol]exporterFactory[trace.SpanExporter]{
	ProtocolGrpc: func(ctx context.Context, endpoint string, headers map[string]string) (trace.SpanExporter, error) {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithHeaders(headers)}
		if endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(endpoint))
		}
		return otlptracegrpc.New(ctx, opts...)
	},
	ProtocolHttp: func(ctx context.Context, endpoint string, headers map[string]string) (trace.SpanExporter, error) {
		opts := []otlptracehttp.Option{otlptracehttp.WithHeaders(headers)}
		if endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	},
}

var metricExporters = map[Protocol]exporterFactory[metric.Exporter]{
	ProtocolGrpc: func(ctx context.Context, endpoint string, headers map[string]string) (metric.Exporter, error) {
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithHeaders(headers)}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpointURL(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	},
	ProtocolHttp: func(ctx context.Context, endpoint string, headers map[string]string) (metric.Exporter, error) {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithHeaders(headers)}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpointURL(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	},
}

// newExporter looks up the factory for conn's protocol in table and builds
// the exporter, signal only names it in logs and errors.
func newExporter[T any](ctx context.Context, signal string, table map[Protocol]exporterFactory[T], conn OtlpConnConfig) (T, error) {
	protocol := conn.protocol()
	factory, ok := table[protocol]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w %q for %s", ErrUnknownProtocol, protocol, signal)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	exporter, err := factory(ctx, conn.Endpoint, conn.Headers)
	if err != nil {
		return exporter, fmt.Errorf("%s exporter: %w", signal, err)
	}
	slog.Info(
		signal+" exporter initialized",
		"type", protocol,
		"endpoint", conn.Endpoint,
	)
	return exporter, nil
}

func newTraceProvider(ctx context.Context, r *resource.Resource, config Config) (*trace.TracerProvider, error) {
	exporter, err := newExporter(ctx, "trace", traceExporters, config.Otlp.Traces)
	if err != nil {
		return nil, err
	}

	traceProvider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	)
	return traceProvider, nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, config Config) (*metric.MeterProvider, error) {
	exporter, err := newExporter(ctx, "metric", metricExporters, config.Otlp.Metrics)
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(time.Second*5))),
		metric.WithResource(r),
	)
	return provider, nil
}
