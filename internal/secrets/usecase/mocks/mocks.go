// Package mocks provides testify mocks for the secret use case interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
)

// MockEncryptor is a mock implementation of Encryptor.
type MockEncryptor struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method.
func (m *MockEncryptor) Encrypt(plaintext []byte) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

// Decrypt mocks the Decrypt method.
func (m *MockEncryptor) Decrypt(envelope string) ([]byte, error) {
	args := m.Called(envelope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// EncryptedVersion mocks the EncryptedVersion method.
func (m *MockEncryptor) EncryptedVersion(envelope string) (uint, bool) {
	args := m.Called(envelope)
	return args.Get(0).(uint), args.Bool(1)
}

// ReEncrypt mocks the ReEncrypt method.
func (m *MockEncryptor) ReEncrypt(envelope string, targetVersion uint) (string, error) {
	args := m.Called(envelope, targetVersion)
	return args.String(0), args.Error(1)
}

// CurrentVersion mocks the CurrentVersion method.
func (m *MockEncryptor) CurrentVersion() uint {
	args := m.Called()
	return args.Get(0).(uint)
}

// MockSecretRepository is a mock implementation of SecretRepository.
type MockSecretRepository struct {
	mock.Mock
}

// Get mocks the Get method.
func (m *MockSecretRepository) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

// Put mocks the Put method.
func (m *MockSecretRepository) Put(ctx context.Context, secret *secretsDomain.Secret) error {
	args := m.Called(ctx, secret)
	return args.Error(0)
}

// List mocks the List method.
func (m *MockSecretRepository) List(ctx context.Context) ([]*secretsDomain.Secret, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.Secret), args.Error(1)
}

// MockSecretManager is a mock implementation of SecretManager.
type MockSecretManager struct {
	mock.Mock
}

// Store mocks the Store method.
func (m *MockSecretManager) Store(
	ctx context.Context,
	name string,
	value []byte,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

// Retrieve mocks the Retrieve method.
func (m *MockSecretManager) Retrieve(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

// MigrateToKeyVersion mocks the MigrateToKeyVersion method.
func (m *MockSecretManager) MigrateToKeyVersion(
	ctx context.Context,
	targetVersion uint,
) (*secretsDomain.MigrationReport, error) {
	args := m.Called(ctx, targetVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.MigrationReport), args.Error(1)
}

// VersionReport mocks the VersionReport method.
func (m *MockSecretManager) VersionReport(ctx context.Context) (*secretsDomain.VersionReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.VersionReport), args.Error(1)
}
