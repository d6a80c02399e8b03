// Package domain defines the key-versioning model and the envelope wire format.
//
// Keys are never stored: a key is recomputed from the master passphrase and its version
// whenever it is needed, so KeyVersion metadata is the only state tied to a version.
package domain

import (
	"context"
	"time"
)

// KeyVersion describes one generation of the derived key.
type KeyVersion struct {
	Version   uint
	CreatedAt time.Time
	// RotatedAt is set when a newer version supersedes this one and stays nil for the
	// active version.
	RotatedAt *time.Time
	// Fingerprint identifies the derived key without revealing it. Empty until computed.
	Fingerprint string
}

// IsActive reports whether the version has not been superseded.
func (k KeyVersion) IsActive() bool {
	return k.RotatedAt == nil
}

// KeyInfo is a read-only snapshot of an encryption manager's key state.
type KeyInfo struct {
	CurrentVersion    uint
	AvailableVersions []uint // ascending
	Metadata          map[uint]KeyVersion
}

// ValidateVersion returns ErrInvalidVersion when version does not fit the envelope header.
func ValidateVersion(version uint) error {
	if version > MaxKeyVersion {
		return ErrInvalidVersion
	}
	return nil
}

// KMSKeeper wraps and unwraps small secrets with an external key management service.
// *secrets.Keeper from gocloud.dev satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
