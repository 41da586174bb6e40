package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

const (
	serviceName    = "hookguard"
	serviceVersion = "1.0.0"

	decisionsMetric = "hookguard_decisions_total"
)

// Exporter exports guard decision metrics to an OTEL Collector.
type Exporter struct {
	provider       *sdkmetric.MeterProvider
	decisionsTotal metric.Int64Counter
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Active() {
		return nil, ErrDisabled
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	e, err := newExporter(sdkmetric.NewPeriodicReader(exp), res)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(e.provider)
	return e, nil
}

func newExporter(reader sdkmetric.Reader, res *resource.Resource) (*Exporter, error) {
	opts := []sdkmetric.Option{sdkmetric.WithReader(reader)}
	if res != nil {
		opts = append(opts, sdkmetric.WithResource(res))
	}
	provider := sdkmetric.NewMeterProvider(opts...)

	meter := provider.Meter(serviceName)

	decisionsTotal, err := meter.Int64Counter(
		decisionsMetric,
		metric.WithDescription("Guard decisions by outcome, rule and tool"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating decisions counter: %w", err)
	}

	return &Exporter{
		provider:       provider,
		decisionsTotal: decisionsTotal,
	}, nil
}

// RecordDecision counts one guard decision.
func (e *Exporter) RecordDecision(ctx context.Context, rec *domain.DecisionRecord) error {
	rule := rec.Rule
	if rule == "" {
		rule = "none"
	}

	e.decisionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", rec.Decision),
		attribute.String("rule", rule),
		attribute.String("tool_name", rec.ToolName),
	))
	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
