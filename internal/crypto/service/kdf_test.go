package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
)

// testKDFParams keeps Argon2id cheap in tests.
var testKDFParams = KDFParams{Time: 1, MemoryKiB: 64, Threads: 1}

func TestNewArgon2KDF(t *testing.T) {
	t.Run("zero params fall back to defaults", func(t *testing.T) {
		kdf := NewArgon2KDF(KDFParams{})
		assert.Equal(t, DefaultKDFParams(), kdf.params)
	})

	t.Run("explicit params are kept", func(t *testing.T) {
		kdf := NewArgon2KDF(testKDFParams)
		assert.Equal(t, testKDFParams, kdf.params)
	})
}

func TestArgon2KDF_Derive(t *testing.T) {
	kdf := NewArgon2KDF(testKDFParams)
	passphrase := []byte("correct horse battery staple")

	t.Run("deterministic", func(t *testing.T) {
		k1, err := kdf.Derive(passphrase, 1)
		require.NoError(t, err)
		k2, err := kdf.Derive(passphrase, 1)
		require.NoError(t, err)

		assert.Len(t, k1, cryptoDomain.KeySize)
		assert.Equal(t, k1, k2)
	})

	t.Run("versions get different keys", func(t *testing.T) {
		k1, err := kdf.Derive(passphrase, 1)
		require.NoError(t, err)
		k2, err := kdf.Derive(passphrase, 2)
		require.NoError(t, err)

		assert.NotEqual(t, k1, k2)
	})

	t.Run("passphrases get different keys", func(t *testing.T) {
		k1, err := kdf.Derive(passphrase, 1)
		require.NoError(t, err)
		k2, err := kdf.Derive([]byte("another passphrase"), 1)
		require.NoError(t, err)

		assert.NotEqual(t, k1, k2)
	})

	t.Run("empty passphrase", func(t *testing.T) {
		_, err := kdf.Derive(nil, 1)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidPassphrase)
	})

	t.Run("version out of range", func(t *testing.T) {
		_, err := kdf.Derive(passphrase, 256)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidVersion)
	})
}

func TestVersionSalt(t *testing.T) {
	assert.Len(t, versionSalt(1), 16)
	assert.Equal(t, versionSalt(9), versionSalt(9))
	assert.NotEqual(t, versionSalt(1), versionSalt(2))
}
