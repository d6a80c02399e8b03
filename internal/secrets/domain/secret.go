// Package domain defines the core domain models for secret storage.
// A secret is a named value kept only as an encrypted envelope; storing under an
// existing name replaces the envelope in place.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxNameLength is the longest accepted secret name.
const MaxNameLength = 255

// Secret is a named, encrypted value.
type Secret struct {
	// ID is assigned when the name is first stored and kept across updates.
	ID   uuid.UUID
	Name string
	// Envelope is the base64 envelope produced by the encryption manager.
	Envelope  string
	CreatedAt time.Time
	UpdatedAt time.Time

	// KeyVersion is the confirmed key version of Envelope. It is only meaningful when
	// Legacy is false and is filled in by the use case, never persisted.
	KeyVersion uint
	// Legacy marks an envelope in the pre-versioning layout.
	Legacy bool

	// Plaintext holds the decrypted value in memory only; must be zeroed after use.
	Plaintext []byte `json:"-"`
}

// ValidateName checks that name is usable as a secret key.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLength {
		return ErrInvalidSecretName
	}
	return nil
}
