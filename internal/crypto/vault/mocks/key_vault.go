// Package mocks provides mock implementations of KeyVault for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockKeyVault is a mock implementation of vault.KeyVault.
type MockKeyVault struct {
	mock.Mock
}

// EncryptEnvelope mocks the EncryptEnvelope method of KeyVault.
func (m *MockKeyVault) EncryptEnvelope(ctx context.Context, plaintext []byte, keyName string) ([]byte, error) {
	args := m.Called(ctx, plaintext, keyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// DecryptEnvelope mocks the DecryptEnvelope method of KeyVault.
func (m *MockKeyVault) DecryptEnvelope(ctx context.Context, ciphertext []byte, keyName string) ([]byte, error) {
	args := m.Called(ctx, ciphertext, keyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Callers zero the returned slice, so hand out a copy.
	return append([]byte(nil), args.Get(0).([]byte)...), args.Error(1)
}

// GenerateRandomBytes mocks the GenerateRandomBytes method of KeyVault.
func (m *MockKeyVault) GenerateRandomBytes(ctx context.Context, n int) ([]byte, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return append([]byte(nil), args.Get(0).([]byte)...), args.Error(1)
}

// Name mocks the Name method of KeyVault.
func (m *MockKeyVault) Name() string {
	return "mock"
}

// Close mocks the Close method of KeyVault.
func (m *MockKeyVault) Close() error {
	args := m.Called()
	return args.Error(0)
}
