package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	eventsProcessed   metric.Int64Counter
	paymentsCreated   metric.Int64Counter
	duplicatesSkipped metric.Int64Counter
	intentFailures    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "prizepay"
	}
	meter := provider.Meter(name)

	eventsProcessed, err := meter.Int64Counter("prizepay_challenge_events_total")
	if err != nil {
		return nil, err
	}
	paymentsCreated, err := meter.Int64Counter("prizepay_payments_created_total")
	if err != nil {
		return nil, err
	}
	duplicatesSkipped, err := meter.Int64Counter("prizepay_payments_duplicate_total")
	if err != nil {
		return nil, err
	}
	intentFailures, err := meter.Int64Counter("prizepay_intent_failures_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		eventsProcessed:   eventsProcessed,
		paymentsCreated:   paymentsCreated,
		duplicatesSkipped: duplicatesSkipped,
		intentFailures:    intentFailures,
	}, nil
}

// RecordEventProcessed increments processed challenge event counts.
func (m *Metrics) RecordEventProcessed(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.eventsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

// RecordPaymentCreated increments created payment counts.
func (m *Metrics) RecordPaymentCreated(ctx context.Context, paymentType string) {
	if m == nil {
		return
	}
	m.paymentsCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_type", strings.TrimSpace(paymentType)),
	))
}

// RecordDuplicateSkipped increments duplicate payment skip counts.
func (m *Metrics) RecordDuplicateSkipped(ctx context.Context, paymentType string) {
	if m == nil {
		return
	}
	m.duplicatesSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_type", strings.TrimSpace(paymentType)),
	))
}

// RecordIntentFailure increments failed intent counts.
func (m *Metrics) RecordIntentFailure(ctx context.Context, paymentType string) {
	if m == nil {
		return
	}
	m.intentFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_type", strings.TrimSpace(paymentType)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
