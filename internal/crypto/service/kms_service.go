package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsService implements KMSService using gocloud.dev/secrets.
type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens a secrets.Keeper for keyURI.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// PassphraseSource describes where the master passphrase comes from. When Encrypted is
// set it is a base64 KMS ciphertext unwrapped with the keeper for KMSKeyURI; otherwise
// Plain is used as is.
type PassphraseSource struct {
	Plain     string
	Encrypted string
	KMSKeyURI string
}

// LoadPassphrase resolves the master passphrase from src.
func LoadPassphrase(ctx context.Context, kms KMSService, src PassphraseSource) ([]byte, error) {
	if src.Encrypted == "" {
		if src.Plain == "" {
			return nil, cryptoDomain.ErrInvalidPassphrase
		}
		return []byte(src.Plain), nil
	}

	if src.KMSKeyURI == "" {
		return nil, fmt.Errorf("kms key uri is required for an encrypted passphrase: %w",
			cryptoDomain.ErrInvalidPassphrase)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(src.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted passphrase: %w", err)
	}

	keeper, err := kms.OpenKeeper(ctx, src.KMSKeyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	passphrase, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt passphrase with KMS: %w", err)
	}
	if len(passphrase) == 0 {
		return nil, cryptoDomain.ErrInvalidPassphrase
	}
	return passphrase, nil
}

// WrapPassphrase encrypts passphrase with the keeper for keyURI and returns the base64
// ciphertext suitable for MASTER_PASSPHRASE_ENCRYPTED.
func WrapPassphrase(ctx context.Context, kms KMSService, keyURI string, passphrase []byte) (string, error) {
	if len(passphrase) == 0 {
		return "", cryptoDomain.ErrInvalidPassphrase
	}

	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := keeper.Encrypt(ctx, passphrase)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt passphrase with KMS: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
