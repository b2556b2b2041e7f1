package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

const sealedChunkSize = cryptoDomain.StreamChunkSize + cryptoDomain.TagSize

func encryptStream(t *testing.T, c Cipher, key, nonce, plaintext []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, c.EncryptStream(key, nonce, bytes.NewReader(plaintext), &out))
	return out.Bytes()
}

func TestCipher_StreamRoundTrip(t *testing.T) {
	sizes := []struct {
		name   string
		size   int
		chunks int
	}{
		{"empty", 0, 1},
		{"one byte", 1, 1},
		{"exactly one chunk", cryptoDomain.StreamChunkSize, 2},
		{"multiple chunks plus partial", 3*cryptoDomain.StreamChunkSize + 1234, 4},
	}

	for _, c := range allCiphers() {
		for _, tt := range sizes {
			t.Run(string(c.Algorithm())+"/"+tt.name, func(t *testing.T) {
				key := randomBytes(t, cryptoDomain.KeySize)
				nonce := randomBytes(t, c.StreamNonceSize())
				plaintext := randomBytes(t, tt.size)

				ciphertext := encryptStream(t, c, key, nonce, plaintext)

				lastChunk := tt.size - (tt.chunks-1)*cryptoDomain.StreamChunkSize
				assert.Len(t, ciphertext, (tt.chunks-1)*sealedChunkSize+lastChunk+cryptoDomain.TagSize)

				var out bytes.Buffer
				require.NoError(t, c.DecryptStream(key, nonce, bytes.NewReader(ciphertext), &out))
				assert.Equal(t, len(plaintext), out.Len())
				assert.True(t, bytes.Equal(plaintext, out.Bytes()))
			})
		}
	}
}

func TestCipher_StreamTampering(t *testing.T) {
	c := NewXChaCha20Poly1305()
	key := randomBytes(t, cryptoDomain.KeySize)
	nonce := randomBytes(t, c.StreamNonceSize())
	plaintext := randomBytes(t, 2*cryptoDomain.StreamChunkSize+100)
	ciphertext := encryptStream(t, c, key, nonce, plaintext)
	require.Len(t, ciphertext, 2*sealedChunkSize+100+cryptoDomain.TagSize)

	decrypt := func(data []byte) error {
		var out bytes.Buffer
		return c.DecryptStream(key, nonce, bytes.NewReader(data), &out)
	}

	t.Run("truncated by one chunk", func(t *testing.T) {
		err := decrypt(ciphertext[:2*sealedChunkSize])
		assert.ErrorIs(t, err, cryptoDomain.ErrStreamTruncated)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("truncated mid chunk", func(t *testing.T) {
		err := decrypt(ciphertext[:sealedChunkSize+500])
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("empty input", func(t *testing.T) {
		err := decrypt(nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrStreamTruncated)
	})

	t.Run("reordered chunks", func(t *testing.T) {
		reordered := make([]byte, 0, len(ciphertext))
		reordered = append(reordered, ciphertext[sealedChunkSize:2*sealedChunkSize]...)
		reordered = append(reordered, ciphertext[:sealedChunkSize]...)
		reordered = append(reordered, ciphertext[2*sealedChunkSize:]...)
		assert.ErrorIs(t, decrypt(reordered), cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("dropped middle chunk", func(t *testing.T) {
		dropped := append(append([]byte(nil), ciphertext[:sealedChunkSize]...), ciphertext[2*sealedChunkSize:]...)
		assert.ErrorIs(t, decrypt(dropped), cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("bit flip", func(t *testing.T) {
		tampered := append([]byte(nil), ciphertext...)
		tampered[sealedChunkSize+10] ^= 0x01
		assert.ErrorIs(t, decrypt(tampered), cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("trailing data after last chunk", func(t *testing.T) {
		// A full-size final chunk is read as a regular chunk, so the
		// appended bytes can never authenticate as the last chunk.
		extended := append(append([]byte(nil), ciphertext...), make([]byte, sealedChunkSize)...)
		assert.ErrorIs(t, decrypt(extended), cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("wrong nonce", func(t *testing.T) {
		var out bytes.Buffer
		err := c.DecryptStream(key, randomBytes(t, c.StreamNonceSize()), bytes.NewReader(ciphertext), &out)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Zero(t, out.Len())
	})
}

func TestCipher_StreamInvalidParameters(t *testing.T) {
	c := NewChaCha20Poly1305()
	key := randomBytes(t, cryptoDomain.KeySize)
	var out bytes.Buffer

	err := c.EncryptStream(key, randomBytes(t, c.NonceSize()), bytes.NewReader([]byte("x")), &out)
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidNonceSize)

	err = c.DecryptStream(make([]byte, 8), randomBytes(t, c.StreamNonceSize()), bytes.NewReader([]byte("x")), &out)
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestCipher_StreamIOErrors(t *testing.T) {
	c := NewXChaCha20Poly1305()
	key := randomBytes(t, cryptoDomain.KeySize)
	nonce := randomBytes(t, c.StreamNonceSize())

	err := c.EncryptStream(key, nonce, bytes.NewReader([]byte("data")), failingWriter{})
	assert.ErrorContains(t, err, "disk full")

	err = c.EncryptStream(key, nonce, failingReader{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)

	ciphertext := encryptStream(t, c, key, nonce, []byte("data"))
	err = c.DecryptStream(key, nonce, bytes.NewReader(ciphertext), failingWriter{})
	assert.ErrorContains(t, err, "disk full")
}

func TestStreamNonce_Overflow(t *testing.T) {
	nonces, err := newStreamNonce(make([]byte, 19), 24)
	require.NoError(t, err)
	nonces.counter = ^uint32(0)

	_, err = nonces.next(false)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)

	last, err := nonces.next(true)
	require.NoError(t, err)
	assert.Equal(t, byte(lastChunkFlag), last[len(last)-1])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, last[19:23])

	_, err = nonces.next(false)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
}

func TestStreamNonce_Layout(t *testing.T) {
	base := bytes.Repeat([]byte{0xaa}, 7)
	nonces, err := newStreamNonce(base, 12)
	require.NoError(t, err)

	first, err := nonces.next(false)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte(nil), base...), 0, 0, 0, 0, 0), append([]byte(nil), first...))

	second, err := nonces.next(true)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte(nil), base...), 0, 0, 0, 1, 1), append([]byte(nil), second...))
}
