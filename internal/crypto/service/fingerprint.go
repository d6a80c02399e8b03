package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const fingerprintInfo = "rotavault/key-fingerprint/v1"

// KeyFingerprint derives a short public identifier for a derived key with HKDF-SHA256.
// The fingerprint cannot be reversed into the key, and since the key itself comes out
// of Argon2id, checking a guessed passphrase against it costs a full derivation.
func KeyFingerprint(key []byte) (string, error) {
	r := hkdf.New(sha256.New, key, nil, []byte(fingerprintInfo))

	fp := make([]byte, 16)
	if _, err := io.ReadFull(r, fp); err != nil {
		return "", fmt.Errorf("failed to derive key fingerprint: %w", err)
	}
	return hex.EncodeToString(fp), nil
}
