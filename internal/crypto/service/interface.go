// Package service implements key derivation, AEAD sealing and the versioned
// EncryptionManager that ties them together.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
)

// AEAD seals and opens envelope payloads (nonce ‖ ciphertext ‖ tag) with a single key.
type AEAD interface {
	Seal(plaintext []byte) []byte
	Open(payload []byte) ([]byte, error)
}

// KeyDeriver turns a master passphrase and a key version into a KeySize key.
// Implementations must be deterministic.
type KeyDeriver interface {
	Derive(passphrase []byte, version uint) ([]byte, error)
}

// KMSService opens keepers for wrapping the master passphrase.
type KMSService interface {
	// OpenKeeper opens a keeper for keyURI (gcpkms://, awskms://, azurekeyvault://,
	// hashivault://, base64key://).
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
