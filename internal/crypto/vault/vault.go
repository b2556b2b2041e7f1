// Package vault provides the Cloud Key Vault backends that hold the top-level wrapping
// key. A backend envelope-encrypts small blobs (master keys) with a named key that never
// leaves the vault and serves cryptographically secure random bytes.
//
// Supported backends:
//   - gcp: Google Cloud KMS
//   - aws: AWS KMS
//   - vault: HashiCorp Vault transit engine
//   - keeper: any gocloud.dev/secrets URL (including base64key:// for local use)
//
// Backend errors are returned wrapped with the backend name. Nothing is retried or cached.
package vault

import (
	"context"
	"fmt"

	apperrors "github.com/allisson/pandorica/internal/errors"
)

// maxRandomBytes is the largest request every backend accepts in one call.
const maxRandomBytes = 1024

var (
	// ErrChecksumMismatch indicates a response failed its integrity checksum.
	ErrChecksumMismatch = apperrors.Wrap(apperrors.ErrUnavailable, "key vault checksum mismatch")

	// ErrInvalidResponse indicates the vault returned an unusable response.
	ErrInvalidResponse = apperrors.Wrap(apperrors.ErrUnavailable, "key vault invalid response")

	// ErrInvalidRandomLength indicates a random byte count outside 1..maxRandomBytes.
	ErrInvalidRandomLength = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid random byte length")
)

// KeyVault is the capability set of an external key custodian.
type KeyVault interface {
	// EncryptEnvelope encrypts plaintext with the vault key named keyName.
	EncryptEnvelope(ctx context.Context, plaintext []byte, keyName string) ([]byte, error)

	// DecryptEnvelope decrypts ciphertext produced by EncryptEnvelope with the same key.
	DecryptEnvelope(ctx context.Context, ciphertext []byte, keyName string) ([]byte, error)

	// GenerateRandomBytes returns n cryptographically secure random bytes.
	GenerateRandomBytes(ctx context.Context, n int) ([]byte, error)

	// Name identifies the backend in logs and errors.
	Name() string

	// Close releases the backend's connections.
	Close() error
}

func validateRandomLength(n int) error {
	if n <= 0 || n > maxRandomBytes {
		return fmt.Errorf("%w: %d", ErrInvalidRandomLength, n)
	}
	return nil
}

func checkRandomLength(backend string, data []byte, n int) ([]byte, error) {
	if len(data) != n {
		return nil, fmt.Errorf("%w: %s returned %d random bytes, want %d", ErrInvalidResponse, backend, len(data), n)
	}
	return data, nil
}
