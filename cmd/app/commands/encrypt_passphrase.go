package commands

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	cryptoService "github.com/allisson/rotavault/internal/crypto/service"
)

// RunEncryptPassphrase reads the master passphrase from the first line of stdio.Reader,
// wraps it with the KMS key at kmsKeyURI and prints the environment variables that
// make the server unwrap it at startup.
func RunEncryptPassphrase(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	stdio IOTuple,
	kmsKeyURI string,
) error {
	if kmsKeyURI == "" {
		return fmt.Errorf("--kms-key-uri is required (e.g. base64key://..., gcpkms://..., awskms://...)")
	}

	passphrase, err := readLine(stdio.Reader)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(passphrase)

	encrypted, err := cryptoService.WrapPassphrase(ctx, kmsService, kmsKeyURI, passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt passphrase: %w", err)
	}

	logger.Info("master passphrase encrypted")

	fmt.Fprintln(stdio.Writer, "# Copy these variables to your environment and remove MASTER_PASSPHRASE")
	fmt.Fprintf(stdio.Writer, "KMS_KEY_URI=%q\n", kmsKeyURI)
	fmt.Fprintf(stdio.Writer, "MASTER_PASSPHRASE_ENCRYPTED=%q\n", encrypted)
	return nil
}
