package service

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/argon2"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
)

// kdfSaltContext domain-separates the per-version salts. Changing it changes every key.
const kdfSaltContext = "rotavault/key-derivation/v1"

// KDFParams holds the Argon2id cost parameters.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDFParams returns the production cost parameters (3 passes, 64 MiB, 4 lanes).
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:      3,
		MemoryKiB: 64 * 1024,
		Threads:   4,
	}
}

// Argon2KDF derives version keys with Argon2id. Each version gets its own salt, so
// brute-forcing one version's key does not yield another's.
type Argon2KDF struct {
	params KDFParams
}

// NewArgon2KDF creates an Argon2id key deriver. Zero fields fall back to the defaults.
func NewArgon2KDF(params KDFParams) *Argon2KDF {
	defaults := DefaultKDFParams()
	if params.Time == 0 {
		params.Time = defaults.Time
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = defaults.MemoryKiB
	}
	if params.Threads == 0 {
		params.Threads = defaults.Threads
	}
	return &Argon2KDF{params: params}
}

// Derive returns the KeySize key for (passphrase, version).
func (k *Argon2KDF) Derive(passphrase []byte, version uint) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, cryptoDomain.ErrInvalidPassphrase
	}
	if err := cryptoDomain.ValidateVersion(version); err != nil {
		return nil, err
	}

	return argon2.IDKey(
		passphrase,
		versionSalt(version),
		k.params.Time,
		k.params.MemoryKiB,
		k.params.Threads,
		cryptoDomain.KeySize,
	), nil
}

// versionSalt is sha256(context ‖ uint32_be(version)) truncated to 16 bytes.
func versionSalt(version uint) []byte {
	var v [4]byte
	binary.BigEndian.PutUint32(v[:], uint32(version))

	h := sha256.New()
	h.Write([]byte(kdfSaltContext))
	h.Write(v[:])
	return h.Sum(nil)[:16]
}
