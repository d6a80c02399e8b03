package usecase

import (
	"context"
	"time"

	"github.com/allisson/rotavault/internal/metrics"
	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
)

// secretManagerWithMetrics decorates SecretManager with metrics instrumentation.
type secretManagerWithMetrics struct {
	next    SecretManager
	metrics metrics.BusinessMetrics
}

// NewSecretManagerWithMetrics wraps a SecretManager with metrics recording.
func NewSecretManagerWithMetrics(manager SecretManager, m metrics.BusinessMetrics) SecretManager {
	return &secretManagerWithMetrics{
		next:    manager,
		metrics: m,
	}
}

// Store records metrics for secret store operations.
func (s *secretManagerWithMetrics) Store(
	ctx context.Context,
	name string,
	value []byte,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Store(ctx, name, value)
	s.record(ctx, "secret_store", start, err)
	return secret, err
}

// Retrieve records metrics for secret retrieval operations.
func (s *secretManagerWithMetrics) Retrieve(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Retrieve(ctx, name)
	s.record(ctx, "secret_retrieve", start, err)
	return secret, err
}

// MigrateToKeyVersion records metrics for migration runs. A run that completes with
// per-secret failures is recorded as "partial".
func (s *secretManagerWithMetrics) MigrateToKeyVersion(
	ctx context.Context,
	targetVersion uint,
) (*secretsDomain.MigrationReport, error) {
	start := time.Now()
	report, err := s.next.MigrateToKeyVersion(ctx, targetVersion)

	status := metrics.StatusSuccess
	switch {
	case err != nil:
		status = metrics.StatusError
	case report != nil && report.Failed > 0:
		status = metrics.StatusPartial
	}

	s.metrics.RecordOperation(ctx, "secrets", "secret_migrate", status)
	s.metrics.RecordDuration(ctx, "secrets", "secret_migrate", time.Since(start), status)
	if report != nil {
		s.metrics.RecordSecretsMigrated(ctx, report.TargetVersion, report.Migrated, report.Failed)
	}

	return report, err
}

// VersionReport records metrics for version report generation.
func (s *secretManagerWithMetrics) VersionReport(ctx context.Context) (*secretsDomain.VersionReport, error) {
	start := time.Now()
	report, err := s.next.VersionReport(ctx)
	s.record(ctx, "secret_version_report", start, err)
	return report, err
}

func (s *secretManagerWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}

	s.metrics.RecordOperation(ctx, "secrets", operation, status)
	s.metrics.RecordDuration(ctx, "secrets", operation, time.Since(start), status)
}
