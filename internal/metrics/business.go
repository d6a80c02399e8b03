package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Operation statuses recorded by the use case decorators.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
	StatusPartial  = "partial"
)

// BusinessMetrics records key lifecycle and secret operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation. domain is "keys" or "secrets"; operation
	// names the use case method (e.g. "key_rotate", "secret_migrate").
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration observes how long an operation took, in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordKeyVersion publishes the key version new secrets are sealed under.
	RecordKeyVersion(ctx context.Context, version uint)

	// RecordSecretsMigrated counts secrets re-encrypted or failed during a migration to
	// targetVersion.
	RecordSecretsMigrated(ctx context.Context, targetVersion uint, migrated, failed int)
}

type businessMetrics struct {
	operations     metric.Int64Counter
	durations      metric.Float64Histogram
	currentVersion metric.Int64Gauge
	migrated       metric.Int64Counter
}

// NewBusinessMetrics registers the business instruments on meterProvider, every name
// prefixed with namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)
	b := &businessMetrics{}

	var err error
	b.operations, err = meter.Int64Counter(
		namespace+"_operations_total",
		metric.WithDescription("Total number of key and secret operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	b.durations, err = meter.Float64Histogram(
		namespace+"_operation_duration_seconds",
		metric.WithDescription("Duration of key and secret operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	b.currentVersion, err = meter.Int64Gauge(
		namespace+"_current_key_version",
		metric.WithDescription("Key version used to encrypt new secrets"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create key version gauge: %w", err)
	}

	b.migrated, err = meter.Int64Counter(
		namespace+"_secrets_migrated_total",
		metric.WithDescription("Secrets processed by key version migrations"),
		metric.WithUnit("{secret}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration counter: %w", err)
	}

	return b, nil
}

func operationAttributes(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1, operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durations.Record(ctx, duration.Seconds(), operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordKeyVersion(ctx context.Context, version uint) {
	b.currentVersion.Record(ctx, int64(version))
}

func (b *businessMetrics) RecordSecretsMigrated(ctx context.Context, targetVersion uint, migrated, failed int) {
	target := attribute.Int("target_version", int(targetVersion))
	if migrated > 0 {
		b.migrated.Add(ctx, int64(migrated),
			metric.WithAttributes(target, attribute.String("status", StatusSuccess)))
	}
	if failed > 0 {
		b.migrated.Add(ctx, int64(failed),
			metric.WithAttributes(target, attribute.String("status", StatusError)))
	}
}

// NoOpBusinessMetrics discards everything; used when METRICS_ENABLED is false.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (n *NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}

func (n *NoOpBusinessMetrics) RecordKeyVersion(context.Context, uint) {}

func (n *NoOpBusinessMetrics) RecordSecretsMigrated(context.Context, uint, int, int) {}
