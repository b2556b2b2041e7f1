package service

import (
	"crypto/cipher"
	"fmt"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// NewCipher returns the Cipher for the algorithm.
// Returns ErrUnsupportedAlgorithm if the algorithm is unknown.
func NewCipher(alg cryptoDomain.Algorithm) (Cipher, error) {
	switch alg {
	case cryptoDomain.XChaCha20:
		return NewXChaCha20Poly1305(), nil
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305(), nil
	case cryptoDomain.AESGCM:
		return NewAESGCM(), nil
	default:
		return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrUnsupportedAlgorithm, alg)
	}
}

// aeadCipher adapts a cipher.AEAD constructor to the Cipher interface.
type aeadCipher struct {
	alg       cryptoDomain.Algorithm
	nonceSize int
	newAEAD   func(key []byte) (cipher.AEAD, error)
}

func (c *aeadCipher) Algorithm() cryptoDomain.Algorithm {
	return c.alg
}

func (c *aeadCipher) KeySize() int {
	return cryptoDomain.KeySize
}

func (c *aeadCipher) NonceSize() int {
	return c.nonceSize
}

// StreamNonceSize leaves room for the 4-byte counter and the 1-byte last-chunk flag.
func (c *aeadCipher) StreamNonceSize() int {
	return c.nonceSize - streamNonceOverhead
}

func (c *aeadCipher) aead(key []byte) (cipher.AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	aead, err := c.newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cipher: %w", c.alg, err)
	}
	return aead, nil
}

func (c *aeadCipher) Encrypt(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, cryptoDomain.ErrInvalidNonceSize
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

func (c *aeadCipher) Decrypt(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, cryptoDomain.ErrInvalidNonceSize
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
