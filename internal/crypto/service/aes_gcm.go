package service

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
)

// AESGCM seals with AES-256-GCM under a random nonce. Payloads are laid out as
// nonce ‖ ciphertext ‖ tag, the body shared by legacy and versioned envelopes.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds the cipher for a KeySize key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithRandomNonce(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// Seal encrypts plaintext into a fresh payload.
func (a *AESGCM) Seal(plaintext []byte) []byte {
	return a.aead.Seal(nil, nil, plaintext, nil)
}

// Open authenticates and decrypts payload. Short or forged payloads yield
// ErrDecryptionFailed and no plaintext.
func (a *AESGCM) Open(payload []byte) ([]byte, error) {
	if len(payload) < cryptoDomain.MinLegacyEnvelopeSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	plaintext, err := a.aead.Open(nil, nil, payload, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
