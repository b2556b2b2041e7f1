package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/crypto/vault"
)

// KeyManagerService implements KeyManager for the two-tier hierarchy:
//   - master keys are wrapped by the key vault's named key
//   - DEKs are wrapped by a master key with the configured cipher
//   - data is encrypted with a DEK
//
// All randomness (master keys, DEKs and nonces) is drawn from the vault. Each wrapped DEK
// authenticates the id of its master key as additional data.
type KeyManagerService struct {
	cipher  Cipher
	vault   vault.KeyVault
	keyName string
}

// NewKeyManager creates a KeyManagerService that wraps master keys with the vault key
// named keyName.
func NewKeyManager(cipher Cipher, keyVault vault.KeyVault, keyName string) *KeyManagerService {
	return &KeyManagerService{
		cipher:  cipher,
		vault:   keyVault,
		keyName: keyName,
	}
}

// CreateMasterKey draws KeySize random bytes from the vault and wraps them with the
// vault key. The returned key owns the plaintext and must be closed by the caller.
func (km *KeyManagerService) CreateMasterKey(
	ctx context.Context,
	now time.Time,
	ttl time.Duration,
) (*cryptoDomain.ActiveMasterKey, error) {
	key, err := km.vault.GenerateRandomBytes(ctx, km.cipher.KeySize())
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	wrapped, err := km.vault.EncryptEnvelope(ctx, key, km.keyName)
	if err != nil {
		cryptoDomain.Zero(key)
		return nil, fmt.Errorf("failed to wrap master key: %w", err)
	}

	now = now.UTC()
	record := &cryptoDomain.MasterKey{
		ID:         uuid.Must(uuid.NewV7()),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		IsActive:   true,
		WrappedKey: wrapped,
	}

	return &cryptoDomain.ActiveMasterKey{Record: record, Key: key}, nil
}

// UnwrapMasterKey decrypts a persisted master key through the vault.
func (km *KeyManagerService) UnwrapMasterKey(
	ctx context.Context,
	record *cryptoDomain.MasterKey,
) (*cryptoDomain.ActiveMasterKey, error) {
	key, err := km.vault.DecryptEnvelope(ctx, record.WrappedKey, km.keyName)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap master key %s: %w", record.ID, err)
	}
	if len(key) != km.cipher.KeySize() {
		cryptoDomain.Zero(key)
		return nil, fmt.Errorf("%w: master key %s", cryptoDomain.ErrInvalidKeySize, record.ID)
	}
	return &cryptoDomain.ActiveMasterKey{Record: record, Key: key}, nil
}

// CreateDek issues a new DEK wrapped under masterKey. The data nonce has the cipher's
// full nonce size; streaming callers use its StreamNonceSize prefix.
func (km *KeyManagerService) CreateDek(
	ctx context.Context,
	masterKey *cryptoDomain.ActiveMasterKey,
) (*cryptoDomain.Dek, error) {
	nonceSize := km.cipher.NonceSize()

	// One vault round trip for the key and both nonces.
	random, err := km.vault.GenerateRandomBytes(ctx, km.cipher.KeySize()+2*nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dek: %w", err)
	}
	defer cryptoDomain.Zero(random)

	key := append([]byte(nil), random[:km.cipher.KeySize()]...)
	dataNonce := append([]byte(nil), random[km.cipher.KeySize():km.cipher.KeySize()+nonceSize]...)
	wrappingNonce := append([]byte(nil), random[km.cipher.KeySize()+nonceSize:]...)

	masterKeyID := masterKey.ID()
	wrappedKey, err := km.cipher.Encrypt(masterKey.Key, wrappingNonce, key, masterKeyID[:])
	if err != nil {
		cryptoDomain.Zero(key)
		return nil, fmt.Errorf("failed to wrap dek: %w", err)
	}

	return &cryptoDomain.Dek{
		WrappedDek: cryptoDomain.WrappedDek{
			WrappedKey:    wrappedKey,
			DataNonce:     dataNonce,
			WrappingNonce: wrappingNonce,
			MasterKeyID:   masterKeyID,
		},
		Key: key,
	}, nil
}

// DecryptDek unwraps a DEK with the plaintext of the master key it references.
func (km *KeyManagerService) DecryptDek(dek *cryptoDomain.WrappedDek, masterKey []byte) ([]byte, error) {
	key, err := km.cipher.Decrypt(masterKey, dek.WrappingNonce, dek.WrappedKey, dek.MasterKeyID[:])
	if err != nil {
		return nil, err
	}
	if len(key) != km.cipher.KeySize() {
		cryptoDomain.Zero(key)
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return key, nil
}
