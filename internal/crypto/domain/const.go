package domain

import (
	"fmt"
	"strings"
	"time"
)

// Algorithm identifies the AEAD construction used by the symmetric cipher provider.
type Algorithm string

const (
	// XChaCha20 is XChaCha20-Poly1305 with a 24-byte nonce. It is the default because
	// random nonces of that size are safe to draw per DEK without a counter.
	XChaCha20 Algorithm = "xchacha20-poly1305"

	// ChaCha20 is ChaCha20-Poly1305 (RFC 8439) with a 12-byte nonce.
	ChaCha20 Algorithm = "chacha20-poly1305"

	// AESGCM is AES-256-GCM with a 12-byte nonce.
	AESGCM Algorithm = "aes-gcm"
)

const (
	// KeySize is the size of master keys and DEKs for every supported algorithm.
	KeySize = 32

	// TagSize is the Poly1305/GCM authentication tag size.
	TagSize = 16

	// StreamChunkSize is the plaintext size of one streaming chunk.
	StreamChunkSize = 10240

	// DefaultMasterKeyTTL is how long a master key stays active before rotation.
	DefaultMasterKeyTTL = 90 * 24 * time.Hour

	// DefaultMasterKeyName is the name of the wrapping key held by the key vault.
	DefaultMasterKeyName = "pandorica-master"
)

// EncryptionProvider selects the symmetric cipher implementation.
type EncryptionProvider string

// HashingProvider selects the password hashing implementation.
type HashingProvider string

// KeyDerivationProvider selects the key derivation implementation.
type KeyDerivationProvider string

// EnvelopeProvider selects the cloud key vault backend.
type EnvelopeProvider string

const (
	EncryptionXChaCha20Poly1305 EncryptionProvider = "xchacha20poly1305"
	EncryptionChaCha20Poly1305  EncryptionProvider = "chacha20poly1305"
	EncryptionAESGCM            EncryptionProvider = "aes-gcm"

	HashingArgon2id HashingProvider = "argon2id"
	HashingBcrypt   HashingProvider = "bcrypt"

	KeyDerivationScrypt     KeyDerivationProvider = "scrypt"
	KeyDerivationHKDFSHA512 KeyDerivationProvider = "hkdf-sha512"

	EnvelopeGCP    EnvelopeProvider = "gcp"
	EnvelopeAWS    EnvelopeProvider = "aws"
	EnvelopeVault  EnvelopeProvider = "vault"
	EnvelopeKeeper EnvelopeProvider = "keeper"
)

// ParseEncryptionProvider parses a configuration selector. Selectors are case-insensitive.
func ParseEncryptionProvider(s string) (EncryptionProvider, error) {
	switch p := EncryptionProvider(normalize(s)); p {
	case EncryptionXChaCha20Poly1305, EncryptionChaCha20Poly1305, EncryptionAESGCM:
		return p, nil
	}
	return "", unknownProvider("encryption", s)
}

// ParseHashingProvider parses a configuration selector.
func ParseHashingProvider(s string) (HashingProvider, error) {
	switch p := HashingProvider(normalize(s)); p {
	case HashingArgon2id, HashingBcrypt:
		return p, nil
	}
	return "", unknownProvider("hashing", s)
}

// ParseKeyDerivationProvider parses a configuration selector.
func ParseKeyDerivationProvider(s string) (KeyDerivationProvider, error) {
	switch p := KeyDerivationProvider(normalize(s)); p {
	case KeyDerivationScrypt, KeyDerivationHKDFSHA512:
		return p, nil
	}
	return "", unknownProvider("key derivation", s)
}

// ParseEnvelopeProvider parses a configuration selector.
func ParseEnvelopeProvider(s string) (EnvelopeProvider, error) {
	switch p := EnvelopeProvider(normalize(s)); p {
	case EnvelopeGCP, EnvelopeAWS, EnvelopeVault, EnvelopeKeeper:
		return p, nil
	}
	return "", unknownProvider("envelope", s)
}

// Algorithm returns the AEAD construction for the provider.
func (p EncryptionProvider) Algorithm() Algorithm {
	switch p {
	case EncryptionChaCha20Poly1305:
		return ChaCha20
	case EncryptionAESGCM:
		return AESGCM
	default:
		return XChaCha20
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func unknownProvider(capability, selector string) error {
	return fmt.Errorf("%w: %s provider %q", ErrUnknownProvider, capability, selector)
}
