package domain

import (
	"github.com/allisson/rotavault/internal/errors"
)

// Cryptographic and key-version errors.
var (
	// ErrMalformedEnvelope indicates the envelope is not valid base64 or is shorter than the
	// smallest legal envelope. It is returned before any key is touched.
	ErrMalformedEnvelope = errors.Wrap(errors.ErrInvalidInput, "malformed envelope")

	// ErrDecryptionFailed indicates no candidate key authenticated the envelope: the data was
	// tampered with, corrupted, or sealed under a different passphrase.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrInvalidVersion indicates a key version outside the representable range [0, 255].
	ErrInvalidVersion = errors.Wrap(errors.ErrInvalidInput, "invalid key version")

	// ErrInvalidPassphrase indicates an empty master passphrase.
	ErrInvalidPassphrase = errors.Wrap(errors.ErrInvalidInput, "invalid master passphrase")

	// ErrInvalidKeySize indicates a key that is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrKeyVersionNotFound indicates no persisted row exists for a key version.
	ErrKeyVersionNotFound = errors.Wrap(errors.ErrNotFound, "key version not found")

	// ErrPassphraseMismatch indicates the configured passphrase does not derive the keys that
	// were recorded for the persisted key versions.
	ErrPassphraseMismatch = errors.Wrap(errors.ErrConflict, "master passphrase does not match stored key versions")

	// ErrRotationRejected indicates a rotation to a version that is not greater than the current one.
	ErrRotationRejected = errors.Wrap(errors.ErrConflict, "key rotation rejected")
)
