package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	cryptoDTO "github.com/allisson/rotavault/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/rotavault/internal/crypto/usecase"
)

// RunRotateKey makes version the current key version and records the rotation.
// Existing secrets stay readable under their old version until migrate-secrets runs.
// A version not greater than the current one is rejected with ErrRotationRejected.
func RunRotateKey(
	ctx context.Context,
	keyUseCase cryptoUseCase.KeyUseCase,
	keyring cryptoUseCase.Keyring,
	logger *slog.Logger,
	out io.Writer,
	version uint,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	previous := keyring.CurrentVersion()
	logger.Info("rotating key",
		slog.Uint64("current_version", uint64(previous)),
		slog.Uint64("requested_version", uint64(version)),
	)

	rotated, err := keyUseCase.Rotate(ctx, keyring, version)
	if err != nil {
		return fmt.Errorf("failed to rotate key: %w", err)
	}
	if !rotated {
		return fmt.Errorf("version %d is not greater than current version %d: %w",
			version, previous, cryptoDomain.ErrRotationRejected)
	}

	if format == FormatJSON {
		return writeJSON(out, cryptoDTO.RotateKeyResponse{
			Rotated:        true,
			CurrentVersion: keyring.CurrentVersion(),
		})
	}

	_, err = fmt.Fprintf(out, "Rotated key from version %d to version %d\n", previous, keyring.CurrentVersion())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, "Run migrate-secrets to re-encrypt existing secrets under the new version.")
	return err
}
