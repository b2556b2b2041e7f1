package domain

import (
	"github.com/allisson/pandorica/internal/errors"
)

// Cryptographic errors. Each wraps a sentinel from internal/errors so the HTTP layer can
// map it without knowing about key hierarchies.
var (
	// ErrUnknownProvider is returned for an unrecognized provider selector. It is a
	// configuration error and stops the process at startup.
	ErrUnknownProvider = errors.Wrap(errors.ErrInvalidInput, "unknown provider")

	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key is not KeySize bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidNonceSize indicates a nonce does not match the cipher's nonce size.
	ErrInvalidNonceSize = errors.Wrap(errors.ErrInvalidInput, "invalid nonce size")

	// ErrDecryptionFailed indicates authenticated decryption failed: wrong key, tampered
	// ciphertext or tampered nonce. The cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrStreamTruncated indicates a ciphertext stream ended before its final chunk.
	ErrStreamTruncated = errors.Wrap(ErrDecryptionFailed, "stream truncated")

	// ErrInvalidDekEncoding indicates a serialized DEK could not be decoded.
	ErrInvalidDekEncoding = errors.Wrap(errors.ErrInvalidInput, "invalid dek encoding")

	// ErrMasterKeyNotFound indicates the referenced master key record does not exist.
	// During rotation it means "first run"; during DEK unwrap it is an integrity failure.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrNotFound, "master key not found")

	// ErrMasterKeyNotLoaded indicates the key management service was used before Init.
	ErrMasterKeyNotLoaded = errors.Wrap(errors.ErrUnavailable, "master key not loaded")

	// ErrInvalidDerivationParams indicates an output length or salt the deriver rejects.
	ErrInvalidDerivationParams = errors.Wrap(errors.ErrInvalidInput, "invalid key derivation parameters")
)

// ErrInvalidPasswordHash indicates a stored hash is not in a format the hasher accepts.
var ErrInvalidPasswordHash = errors.Wrap(errors.ErrInvalidInput, "invalid password hash")
