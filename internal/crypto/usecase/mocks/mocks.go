// Package mocks provides testify mocks for the crypto use case interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	cryptoService "github.com/allisson/rotavault/internal/crypto/service"
	cryptoUseCase "github.com/allisson/rotavault/internal/crypto/usecase"
)

// MockKeyUseCase is a mock implementation of KeyUseCase.
type MockKeyUseCase struct {
	mock.Mock
}

// Load mocks the Load method.
func (m *MockKeyUseCase) Load(ctx context.Context, passphrase []byte) (*cryptoService.EncryptionManager, error) {
	args := m.Called(ctx, passphrase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoService.EncryptionManager), args.Error(1)
}

// Rotate mocks the Rotate method.
func (m *MockKeyUseCase) Rotate(ctx context.Context, keyring cryptoUseCase.Keyring, newVersion uint) (bool, error) {
	args := m.Called(ctx, keyring, newVersion)
	return args.Bool(0), args.Error(1)
}

// Info mocks the Info method.
func (m *MockKeyUseCase) Info(keyring cryptoUseCase.Keyring) cryptoDomain.KeyInfo {
	return m.Called(keyring).Get(0).(cryptoDomain.KeyInfo)
}

// MockKeyVersionRepository is a mock implementation of KeyVersionRepository.
type MockKeyVersionRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockKeyVersionRepository) Create(ctx context.Context, kv *cryptoDomain.KeyVersion) error {
	return m.Called(ctx, kv).Error(0)
}

// Update mocks the Update method.
func (m *MockKeyVersionRepository) Update(ctx context.Context, kv *cryptoDomain.KeyVersion) error {
	return m.Called(ctx, kv).Error(0)
}

// List mocks the List method.
func (m *MockKeyVersionRepository) List(ctx context.Context) ([]*cryptoDomain.KeyVersion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cryptoDomain.KeyVersion), args.Error(1)
}
