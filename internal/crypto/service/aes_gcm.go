package service

import (
	"crypto/aes"
	"crypto/cipher"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// gcmNonceSize is the standard 96-bit GCM nonce.
const gcmNonceSize = 12

// NewAESGCM returns the AES-256-GCM cipher (12-byte nonces). Prefer it on hosts with
// AES-NI.
func NewAESGCM() Cipher {
	return &aeadCipher{
		alg:       cryptoDomain.AESGCM,
		nonceSize: gcmNonceSize,
		newAEAD: func(key []byte) (cipher.AEAD, error) {
			block, err := aes.NewCipher(key)
			if err != nil {
				return nil, err
			}
			return cipher.NewGCM(block)
		},
	}
}
