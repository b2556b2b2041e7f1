// Package service provides the cryptographic primitives behind envelope encryption:
// AEAD ciphers with a chunked streaming mode, password hashers, key derivers, the
// provider registry and the key manager that wraps DEKs under master keys.
package service

import (
	"context"
	"io"
	"time"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// Cipher is an authenticated symmetric cipher. Nonces are supplied by the caller.
// Decryption fails closed with cryptoDomain.ErrDecryptionFailed.
type Cipher interface {
	// Algorithm returns the AEAD construction.
	Algorithm() cryptoDomain.Algorithm

	// KeySize returns the required key size in bytes.
	KeySize() int

	// NonceSize returns the nonce size for one-shot Encrypt and Decrypt.
	NonceSize() int

	// StreamNonceSize returns the base nonce size for the streaming mode.
	StreamNonceSize() int

	// Encrypt seals plaintext under key and nonce, authenticating aad.
	Encrypt(key, nonce, plaintext, aad []byte) ([]byte, error)

	// Decrypt opens ciphertext under key and nonce, authenticating aad.
	Decrypt(key, nonce, ciphertext, aad []byte) ([]byte, error)

	// EncryptStream encrypts src into dst in fixed-size authenticated chunks.
	EncryptStream(key, nonce []byte, src io.Reader, dst io.Writer) error

	// DecryptStream decrypts a stream written by EncryptStream. Chunks already written
	// to dst before an error must be discarded by the caller.
	DecryptStream(key, nonce []byte, src io.Reader, dst io.Writer) error
}

// PasswordHasher hashes passwords with a per-call random salt.
type PasswordHasher interface {
	// Hash returns an encoded hash including algorithm parameters and salt.
	Hash(password []byte) (string, error)

	// Verify reports whether password matches hash. A mismatch returns false without
	// an error; a hash in a foreign format returns ErrInvalidPasswordHash.
	Verify(password []byte, hash string) (bool, error)
}

// KeyDeriver derives key material deterministically from an input and a salt.
type KeyDeriver interface {
	Derive(input, salt []byte, length int) ([]byte, error)
}

// KeyManager performs the pure cryptographic steps of the key hierarchy. It holds no
// state; the key management use case owns the current master key.
type KeyManager interface {
	// CreateMasterKey draws fresh key material from the vault and wraps it with the
	// vault's named key. The returned record is not yet persisted.
	CreateMasterKey(ctx context.Context, now time.Time, ttl time.Duration) (*cryptoDomain.ActiveMasterKey, error)

	// UnwrapMasterKey decrypts a persisted master key through the vault.
	UnwrapMasterKey(ctx context.Context, record *cryptoDomain.MasterKey) (*cryptoDomain.ActiveMasterKey, error)

	// CreateDek draws a DEK and its nonces from the vault and wraps the key under masterKey.
	CreateDek(ctx context.Context, masterKey *cryptoDomain.ActiveMasterKey) (*cryptoDomain.Dek, error)

	// DecryptDek unwraps a DEK with the plaintext master key it references.
	DecryptDek(dek *cryptoDomain.WrappedDek, masterKey []byte) ([]byte, error)
}
