package usecase

import (
	"context"
	"fmt"
	"io"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	cryptoService "github.com/allisson/pandorica/internal/crypto/service"
)

// envelopeUseCase implements EnvelopeUseCase. Every value gets its own DEK and the DEK's
// data nonce, so a nonce is never reused under a key.
type envelopeUseCase struct {
	keyManagement KeyManagementUseCase
	cipher        cryptoService.Cipher
}

// NewEnvelopeUseCase creates an EnvelopeUseCase that encrypts with cipher.
func NewEnvelopeUseCase(keyManagement KeyManagementUseCase, cipher cryptoService.Cipher) EnvelopeUseCase {
	return &envelopeUseCase{
		keyManagement: keyManagement,
		cipher:        cipher,
	}
}

func (e *envelopeUseCase) Encrypt(ctx context.Context, plaintext []byte) (*cryptoDomain.EncryptedValue, error) {
	dek, err := e.keyManagement.GenerateDek(ctx)
	if err != nil {
		return nil, err
	}
	defer dek.Close()

	ciphertext, err := e.cipher.Encrypt(dek.Key, dek.DataNonce, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt value: %w", err)
	}

	serialized, err := dek.WrappedDek.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return &cryptoDomain.EncryptedValue{
		Ciphertext: ciphertext,
		Dek:        serialized,
	}, nil
}

// Decrypt always unwraps and authenticates, so a value changed after an earlier decrypt
// is never answered from the cache. A failure drops any cached plaintext.
func (e *envelopeUseCase) Decrypt(ctx context.Context, value *cryptoDomain.EncryptedValue) ([]byte, error) {
	plaintext, err := e.open(ctx, value)
	if err != nil {
		value.Close()
		return nil, err
	}

	value.SetDecoded(plaintext)
	return plaintext, nil
}

func (e *envelopeUseCase) open(ctx context.Context, value *cryptoDomain.EncryptedValue) ([]byte, error) {
	wrapped, err := value.WrappedDek()
	if err != nil {
		return nil, err
	}

	key, err := e.keyManagement.DecryptDek(ctx, wrapped)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(key)

	return e.cipher.Decrypt(key, wrapped.DataNonce, value.Ciphertext, nil)
}

func (e *envelopeUseCase) EncryptStream(ctx context.Context, src io.Reader, open StreamOpener) error {
	dek, err := e.keyManagement.GenerateDek(ctx)
	if err != nil {
		return err
	}
	defer dek.Close()

	serialized, err := dek.WrappedDek.MarshalBinary()
	if err != nil {
		return err
	}

	dst, err := open(serialized)
	if err != nil {
		return err
	}

	if err := e.cipher.EncryptStream(dek.Key, e.streamNonce(dek.DataNonce), src, dst); err != nil {
		return fmt.Errorf("failed to encrypt stream: %w", err)
	}
	return nil
}

func (e *envelopeUseCase) DecryptStream(ctx context.Context, dek []byte, src io.Reader, dst io.Writer) error {
	wrapped, err := cryptoDomain.ParseWrappedDek(dek)
	if err != nil {
		return err
	}

	key, err := e.keyManagement.DecryptDek(ctx, wrapped)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(key)

	return e.cipher.DecryptStream(key, e.streamNonce(wrapped.DataNonce), src, dst)
}

// streamNonce derives the stream base nonce from a DEK's data nonce. A DEK protects
// either one value or one stream, never both.
func (e *envelopeUseCase) streamNonce(dataNonce []byte) []byte {
	size := e.cipher.StreamNonceSize()
	if len(dataNonce) < size {
		return dataNonce
	}
	return dataNonce[:size]
}
