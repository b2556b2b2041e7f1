package service

import (
	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// NewXChaCha20Poly1305 returns the XChaCha20-Poly1305 cipher (24-byte nonces).
// The extended nonce makes randomly drawn nonces safe for per-DEK use.
func NewXChaCha20Poly1305() Cipher {
	return &aeadCipher{
		alg:       cryptoDomain.XChaCha20,
		nonceSize: chacha20poly1305.NonceSizeX,
		newAEAD:   chacha20poly1305.NewX,
	}
}

// NewChaCha20Poly1305 returns the RFC 8439 ChaCha20-Poly1305 cipher (12-byte nonces).
func NewChaCha20Poly1305() Cipher {
	return &aeadCipher{
		alg:       cryptoDomain.ChaCha20,
		nonceSize: chacha20poly1305.NonceSize,
		newAEAD:   chacha20poly1305.New,
	}
}
