package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	cryptoService "github.com/allisson/rotavault/internal/crypto/service"
	"github.com/allisson/rotavault/internal/metrics"
)

// keyUseCaseWithMetrics decorates KeyUseCase with metrics instrumentation.
type keyUseCaseWithMetrics struct {
	next    KeyUseCase
	metrics metrics.BusinessMetrics
}

// NewKeyUseCaseWithMetrics wraps a KeyUseCase with metrics recording.
func NewKeyUseCaseWithMetrics(useCase KeyUseCase, m metrics.BusinessMetrics) KeyUseCase {
	return &keyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Load records metrics for key loading.
func (k *keyUseCaseWithMetrics) Load(
	ctx context.Context,
	passphrase []byte,
) (*cryptoService.EncryptionManager, error) {
	start := time.Now()
	manager, err := k.next.Load(ctx, passphrase)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}

	k.metrics.RecordOperation(ctx, "keys", "key_load", status)
	k.metrics.RecordDuration(ctx, "keys", "key_load", time.Since(start), status)
	if manager != nil {
		k.metrics.RecordKeyVersion(ctx, manager.CurrentVersion())
	}

	return manager, err
}

// Rotate records metrics for key rotation. Rejected rotations are recorded as "rejected".
func (k *keyUseCaseWithMetrics) Rotate(ctx context.Context, keyring Keyring, newVersion uint) (bool, error) {
	start := time.Now()
	rotated, err := k.next.Rotate(ctx, keyring, newVersion)

	status := metrics.StatusSuccess
	switch {
	case err != nil:
		status = metrics.StatusError
	case !rotated:
		status = metrics.StatusRejected
	}

	k.metrics.RecordOperation(ctx, "keys", "key_rotate", status)
	k.metrics.RecordDuration(ctx, "keys", "key_rotate", time.Since(start), status)
	if rotated {
		k.metrics.RecordKeyVersion(ctx, newVersion)
	}

	return rotated, err
}

// Info is not instrumented; it only reads in-memory state.
func (k *keyUseCaseWithMetrics) Info(keyring Keyring) cryptoDomain.KeyInfo {
	return k.next.Info(keyring)
}
