package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/juju/clock"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	cryptoService "github.com/allisson/rotavault/internal/crypto/service"
	"github.com/allisson/rotavault/internal/database"
)

// keyUseCase implements KeyUseCase.
//
// Rotations are serialized by rotateMu so the version check, the transaction and the
// in-memory switch cannot interleave with another rotation.
type keyUseCase struct {
	txManager      database.TxManager
	keyVersionRepo KeyVersionRepository
	initialVersion uint
	managerOpts    []cryptoService.Option
	clock          clock.Clock
	logger         *slog.Logger

	rotateMu sync.Mutex
}

// Load builds an EncryptionManager from the persisted key versions.
func (k *keyUseCase) Load(ctx context.Context, passphrase []byte) (*cryptoService.EncryptionManager, error) {
	versions, err := k.keyVersionRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if len(versions) == 0 {
		return k.bootstrap(ctx, passphrase)
	}

	active := activeVersion(versions)
	manager, err := cryptoService.NewEncryptionManager(passphrase, active.Version, k.managerOpts...)
	if err != nil {
		return nil, err
	}

	for _, kv := range versions {
		if err := k.restore(manager, kv); err != nil {
			manager.Close()
			return nil, err
		}
	}

	k.logger.Info("key versions loaded",
		slog.Uint64("current_version", uint64(active.Version)),
		slog.Int("versions", len(versions)),
	)
	return manager, nil
}

// bootstrap creates a manager at the initial version and records that version.
func (k *keyUseCase) bootstrap(ctx context.Context, passphrase []byte) (*cryptoService.EncryptionManager, error) {
	manager, err := cryptoService.NewEncryptionManager(passphrase, k.initialVersion, k.managerOpts...)
	if err != nil {
		return nil, err
	}

	fingerprint, err := manager.Fingerprint(k.initialVersion)
	if err != nil {
		manager.Close()
		return nil, err
	}

	kv := cryptoDomain.KeyVersion{
		Version:     k.initialVersion,
		CreatedAt:   k.clock.Now().UTC(),
		Fingerprint: fingerprint,
	}
	if err := k.keyVersionRepo.Create(ctx, &kv); err != nil {
		manager.Close()
		return nil, err
	}
	if err := manager.RestoreKeyVersion(kv); err != nil {
		manager.Close()
		return nil, err
	}

	k.logger.Info("key version bootstrapped", slog.Uint64("version", uint64(kv.Version)))
	return manager, nil
}

// restore verifies kv's fingerprint against the manager's key and adopts its metadata.
func (k *keyUseCase) restore(keyring Keyring, kv *cryptoDomain.KeyVersion) error {
	if kv.Fingerprint != "" {
		fingerprint, err := keyring.Fingerprint(kv.Version)
		if err != nil {
			return err
		}
		if fingerprint != kv.Fingerprint {
			k.logger.Error("master passphrase does not match stored key version",
				slog.Uint64("version", uint64(kv.Version)),
			)
			return cryptoDomain.ErrPassphraseMismatch
		}
	}
	return keyring.RestoreKeyVersion(*kv)
}

// Rotate makes newVersion current in keyring and records the rotation.
func (k *keyUseCase) Rotate(ctx context.Context, keyring Keyring, newVersion uint) (bool, error) {
	if err := cryptoDomain.ValidateVersion(newVersion); err != nil {
		return false, err
	}

	k.rotateMu.Lock()
	defer k.rotateMu.Unlock()

	previousVersion := keyring.CurrentVersion()
	if newVersion <= previousVersion {
		k.logger.Warn("key rotation rejected",
			slog.Uint64("current_version", uint64(previousVersion)),
			slog.Uint64("requested_version", uint64(newVersion)),
		)
		return false, nil
	}

	fingerprint, err := keyring.Fingerprint(newVersion)
	if err != nil {
		return false, err
	}

	now := k.clock.Now().UTC()
	previous := cryptoDomain.KeyVersion{Version: previousVersion, RotatedAt: &now}
	if meta, ok := keyring.KeyInfo().Metadata[previousVersion]; ok {
		previous.CreatedAt = meta.CreatedAt
		previous.Fingerprint = meta.Fingerprint
	}
	next := cryptoDomain.KeyVersion{
		Version:     newVersion,
		CreatedAt:   now,
		Fingerprint: fingerprint,
	}

	err = k.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := k.keyVersionRepo.Update(ctx, &previous); err != nil {
			return err
		}
		if err := k.keyVersionRepo.Create(ctx, &next); err != nil {
			return err
		}
		if !keyring.RotateKey(newVersion) {
			return cryptoDomain.ErrRotationRejected
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	// Align the in-memory metadata with the rows just written.
	if err := keyring.RestoreKeyVersion(previous); err != nil {
		return true, err
	}
	if err := keyring.RestoreKeyVersion(next); err != nil {
		return true, err
	}

	k.logger.Info("key rotation recorded",
		slog.Uint64("previous_version", uint64(previousVersion)),
		slog.Uint64("current_version", uint64(newVersion)),
	)
	return true, nil
}

// Info returns the keyring's current key state.
func (k *keyUseCase) Info(keyring Keyring) cryptoDomain.KeyInfo {
	return keyring.KeyInfo()
}

// activeVersion returns the row that is not superseded, or the highest version when every
// row is. versions must be ordered highest first.
func activeVersion(versions []*cryptoDomain.KeyVersion) *cryptoDomain.KeyVersion {
	for _, kv := range versions {
		if kv.IsActive() {
			return kv
		}
	}
	return versions[0]
}

// NewKeyUseCase creates a new key use case. managerOpts are passed to every
// EncryptionManager it builds. A nil clock falls back to the wall clock and a nil logger
// to slog.Default().
func NewKeyUseCase(
	txManager database.TxManager,
	keyVersionRepo KeyVersionRepository,
	initialVersion uint,
	clk clock.Clock,
	logger *slog.Logger,
	managerOpts ...cryptoService.Option,
) KeyUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &keyUseCase{
		txManager:      txManager,
		keyVersionRepo: keyVersionRepo,
		initialVersion: initialVersion,
		managerOpts:    managerOpts,
		clock:          clk,
		logger:         logger,
	}
}
