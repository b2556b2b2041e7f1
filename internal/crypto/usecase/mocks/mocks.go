// Package mocks provides mock implementations of the crypto use case interfaces.
package mocks

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// MockMasterKeyRepository is a mock implementation of MasterKeyRepository.
type MockMasterKeyRepository struct {
	mock.Mock
}

// Create mocks the Create method of MasterKeyRepository.
func (m *MockMasterKeyRepository) Create(ctx context.Context, masterKey *cryptoDomain.MasterKey) error {
	args := m.Called(ctx, masterKey)
	return args.Error(0)
}

// Get mocks the Get method of MasterKeyRepository.
func (m *MockMasterKeyRepository) Get(ctx context.Context, id uuid.UUID) (*cryptoDomain.MasterKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.MasterKey), args.Error(1)
}

// GetActive mocks the GetActive method of MasterKeyRepository.
func (m *MockMasterKeyRepository) GetActive(ctx context.Context) (*cryptoDomain.MasterKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.MasterKey), args.Error(1)
}

// UpdateMetadata mocks the UpdateMetadata method of MasterKeyRepository.
func (m *MockMasterKeyRepository) UpdateMetadata(
	ctx context.Context,
	id uuid.UUID,
	expiresAt time.Time,
	isActive bool,
) error {
	args := m.Called(ctx, id, expiresAt, isActive)
	return args.Error(0)
}

// MockKeyManagementUseCase is a mock implementation of KeyManagementUseCase.
type MockKeyManagementUseCase struct {
	mock.Mock
}

// Init mocks the Init method of KeyManagementUseCase.
func (m *MockKeyManagementUseCase) Init(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Rotate mocks the Rotate method of KeyManagementUseCase.
func (m *MockKeyManagementUseCase) Rotate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// GenerateDek mocks the GenerateDek method of KeyManagementUseCase.
func (m *MockKeyManagementUseCase) GenerateDek(ctx context.Context) (*cryptoDomain.Dek, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Dek), args.Error(1)
}

// DecryptDek mocks the DecryptDek method of KeyManagementUseCase.
func (m *MockKeyManagementUseCase) DecryptDek(ctx context.Context, dek *cryptoDomain.WrappedDek) ([]byte, error) {
	args := m.Called(ctx, dek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return append([]byte(nil), args.Get(0).([]byte)...), args.Error(1)
}

// Status mocks the Status method of KeyManagementUseCase.
func (m *MockKeyManagementUseCase) Status(ctx context.Context) (*cryptoDomain.MasterKeyStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.MasterKeyStatus), args.Error(1)
}

// Close mocks the Close method of KeyManagementUseCase.
func (m *MockKeyManagementUseCase) Close() {
	m.Called()
}

// MockEnvelopeUseCase is a mock implementation of EnvelopeUseCase.
type MockEnvelopeUseCase struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) Encrypt(ctx context.Context, plaintext []byte) (*cryptoDomain.EncryptedValue, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.EncryptedValue), args.Error(1)
}

// Decrypt mocks the Decrypt method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) Decrypt(ctx context.Context, value *cryptoDomain.EncryptedValue) ([]byte, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// EncryptStream mocks the EncryptStream method of EnvelopeUseCase. When the expectation
// returns no error, src is copied unchanged to the writer returned by open for the DEK
// given as the expectation's second return value.
func (m *MockEnvelopeUseCase) EncryptStream(
	ctx context.Context,
	src io.Reader,
	open func(dek []byte) (io.Writer, error),
) error {
	args := m.Called(ctx, src, open)
	if err := args.Error(0); err != nil {
		return err
	}
	dek, _ := args.Get(1).([]byte)
	dst, err := open(dek)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

// DecryptStream mocks the DecryptStream method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) DecryptStream(ctx context.Context, dek []byte, src io.Reader, dst io.Writer) error {
	args := m.Called(ctx, dek, src, dst)
	return args.Error(0)
}
