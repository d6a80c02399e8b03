// Package usecase defines the interfaces and implementations for secret management use cases.
// The SecretManager stores secrets as versioned envelopes and migrates them between key
// versions; every cryptographic operation is delegated to an Encryptor.
package usecase

import (
	"context"

	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
)

// Encryptor seals and opens versioned envelopes. *service.EncryptionManager satisfies it.
type Encryptor interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(envelope string) ([]byte, error)
	// EncryptedVersion returns the authenticated key version of envelope, or false for
	// malformed and legacy envelopes.
	EncryptedVersion(envelope string) (uint, bool)
	ReEncrypt(envelope string, targetVersion uint) (string, error)
	CurrentVersion() uint
}

// SecretRepository defines the interface for Secret persistence operations.
type SecretRepository interface {
	// Get returns secretsDomain.ErrSecretNotFound when name is not stored.
	Get(ctx context.Context, name string) (*secretsDomain.Secret, error)
	// Put inserts the secret or replaces the stored secret with the same name.
	Put(ctx context.Context, secret *secretsDomain.Secret) error
	// List returns every stored secret ordered by name.
	List(ctx context.Context) ([]*secretsDomain.Secret, error)
}

// SecretManager defines the business logic for storing, reading and migrating secrets.
type SecretManager interface {
	Store(ctx context.Context, name string, value []byte) (*secretsDomain.Secret, error)
	// Retrieve reads and decrypts a secret by name.
	//
	// Security Note: The returned Secret contains plaintext data in the Plaintext field.
	// Callers MUST zero this data after use by calling cryptoDomain.Zero(secret.Plaintext).
	Retrieve(ctx context.Context, name string) (*secretsDomain.Secret, error)
	// MigrateToKeyVersion re-encrypts every secret not already sealed under targetVersion.
	// Per-secret failures are recorded in the report; only a failure to list secrets
	// is returned as an error.
	MigrateToKeyVersion(ctx context.Context, targetVersion uint) (*secretsDomain.MigrationReport, error)
	VersionReport(ctx context.Context) (*secretsDomain.VersionReport, error)
}
