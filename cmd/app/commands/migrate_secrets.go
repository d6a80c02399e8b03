package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	secretsDTO "github.com/allisson/rotavault/internal/secrets/http/dto"
	secretsUseCase "github.com/allisson/rotavault/internal/secrets/usecase"
)

// RunMigrateSecrets re-encrypts every secret under targetVersion, or under the current
// key version when targetVersion is nil. Per-secret failures are reported, not returned.
func RunMigrateSecrets(
	ctx context.Context,
	secretManager secretsUseCase.SecretManager,
	currentVersion uint,
	logger *slog.Logger,
	out io.Writer,
	targetVersion *uint,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	target := currentVersion
	if targetVersion != nil {
		target = *targetVersion
	}
	if err := cryptoDomain.ValidateVersion(target); err != nil {
		return err
	}

	logger.Info("migrating secrets", slog.Uint64("target_version", uint64(target)))

	report, err := secretManager.MigrateToKeyVersion(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to migrate secrets: %w", err)
	}

	if format == FormatJSON {
		return writeJSON(out, secretsDTO.MapMigrationReportToResponse(report))
	}

	fmt.Fprintf(out, "Target version:  %d\n", report.TargetVersion)
	fmt.Fprintf(out, "Total secrets:   %d\n", report.TotalSecrets)
	fmt.Fprintf(out, "Migrated:        %d\n", report.Migrated)
	fmt.Fprintf(out, "Already current: %d\n", report.AlreadyCurrent)
	fmt.Fprintf(out, "Failed:          %d\n", report.Failed)
	fmt.Fprintf(out, "Duration:        %s\n", report.Duration())
	for _, e := range report.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
	return nil
}
