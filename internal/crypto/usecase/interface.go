// Package usecase defines the business logic interfaces for key-version management.
//
// The use case layer ties the in-memory EncryptionManager to the persisted key-version
// history: it builds a manager from stored rows at startup, verifies that the configured
// master passphrase still derives the recorded keys, and performs rotations that update
// both the manager and the database.
package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	cryptoService "github.com/allisson/rotavault/internal/crypto/service"
)

// KeyVersionRepository defines the interface for key-version persistence.
//
// Implementations must honor a transaction carried by the context so a rotation can
// supersede the previous version and record the new one atomically.
//
// Available implementations:
//   - PostgreSQLKeyVersionRepository
//   - MySQLKeyVersionRepository
type KeyVersionRepository interface {
	// Create stores a new key version row.
	Create(ctx context.Context, kv *cryptoDomain.KeyVersion) error

	// Update writes the RotatedAt timestamp of an existing row. A missing row yields
	// cryptoDomain.ErrKeyVersionNotFound.
	Update(ctx context.Context, kv *cryptoDomain.KeyVersion) error

	// List returns every key version, highest version first.
	List(ctx context.Context) ([]*cryptoDomain.KeyVersion, error)
}

// Keyring is the part of the EncryptionManager that key management drives.
// *cryptoService.EncryptionManager satisfies it.
type Keyring interface {
	CurrentVersion() uint
	RotateKey(newVersion uint) bool
	RestoreKeyVersion(kv cryptoDomain.KeyVersion) error
	Fingerprint(version uint) (string, error)
	KeyInfo() cryptoDomain.KeyInfo
}

// KeyUseCase defines key-version lifecycle operations.
//
// Example usage:
//
//	keyUseCase := usecase.NewKeyUseCase(txManager, keyVersionRepo, 1, nil, logger)
//
//	manager, err := keyUseCase.Load(ctx, passphrase)
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//
//	rotated, err := keyUseCase.Rotate(ctx, manager, 2)
type KeyUseCase interface {
	// Load builds an EncryptionManager from the persisted key versions.
	//
	// The active row (RotatedAt nil, or the highest version when none is active) becomes
	// the current version and every other row is restored with its stored metadata.
	// When nothing is persisted yet, the configured initial version is bootstrapped and
	// recorded. Returns cryptoDomain.ErrPassphraseMismatch when the passphrase does not
	// derive the recorded fingerprints.
	Load(ctx context.Context, passphrase []byte) (*cryptoService.EncryptionManager, error)

	// Rotate makes newVersion current in keyring and records the rotation.
	//
	// It returns false without error when the rotation is rejected because newVersion is
	// not greater than the current version. The previous row's RotatedAt and the new row
	// are written in one transaction before the keyring switches; a failed write leaves
	// the keyring untouched.
	Rotate(ctx context.Context, keyring Keyring, newVersion uint) (bool, error)

	// Info returns the keyring's current key state.
	Info(keyring Keyring) cryptoDomain.KeyInfo
}
