package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	secretsDTO "github.com/allisson/rotavault/internal/secrets/http/dto"
	secretsUseCase "github.com/allisson/rotavault/internal/secrets/usecase"
)

// RunVersionReport prints how many secrets are sealed under each key version.
func RunVersionReport(
	ctx context.Context,
	secretManager secretsUseCase.SecretManager,
	logger *slog.Logger,
	out io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	report, err := secretManager.VersionReport(ctx)
	if err != nil {
		return fmt.Errorf("failed to build version report: %w", err)
	}

	logger.Debug("version report built", slog.Int("total_secrets", report.TotalSecrets))

	if format == FormatJSON {
		return writeJSON(out, secretsDTO.MapVersionReportToResponse(report))
	}

	fmt.Fprintf(out, "Current version: %d\n", report.CurrentEncryptionVersion)
	fmt.Fprintf(out, "Total secrets:   %d\n", report.TotalSecrets)

	versions := make([]uint, 0, len(report.VersionDistribution))
	for v := range report.VersionDistribution {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	for _, v := range versions {
		fmt.Fprintf(out, "  version %d: %d\n", v, report.VersionDistribution[v])
	}

	fmt.Fprintf(out, "Legacy format:   %d\n", report.LegacyFormatCount)
	fmt.Fprintf(out, "Needs migration: %d\n", report.NeedsMigration)
	return nil
}
