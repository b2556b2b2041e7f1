package service

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
)

// Streaming uses the STREAM construction with a big-endian 32-bit counter. Every chunk
// nonce is base nonce || counter || last flag, so a chunk only authenticates at its
// original position and the final chunk can't be dropped without detection.
const (
	streamCounterSize   = 4
	streamNonceOverhead = streamCounterSize + 1

	lastChunkFlag = 1
)

// streamNonce builds per-chunk nonces from a base nonce.
type streamNonce struct {
	buf     []byte
	prefix  int
	counter uint32
	done    bool
}

func newStreamNonce(base []byte, nonceSize int) (*streamNonce, error) {
	if len(base) != nonceSize-streamNonceOverhead {
		return nil, cryptoDomain.ErrInvalidNonceSize
	}
	buf := make([]byte, nonceSize)
	copy(buf, base)
	return &streamNonce{buf: buf, prefix: len(base)}, nil
}

// next returns the nonce for the current chunk and advances the counter.
func (s *streamNonce) next(last bool) ([]byte, error) {
	if s.done {
		return nil, fmt.Errorf("%w: stream already finished", cryptoDomain.ErrDecryptionFailed)
	}
	binary.BigEndian.PutUint32(s.buf[s.prefix:], s.counter)
	s.buf[len(s.buf)-1] = 0
	if last {
		s.buf[len(s.buf)-1] = lastChunkFlag
		s.done = true
		return s.buf, nil
	}
	if s.counter == math.MaxUint32 {
		return nil, fmt.Errorf("%w: stream counter overflow", cryptoDomain.ErrDecryptionFailed)
	}
	s.counter++
	return s.buf, nil
}

// EncryptStream reads src in StreamChunkSize chunks. Every full chunk is sealed as a
// regular chunk; the first short read (possibly empty) is sealed as the last chunk.
func (c *aeadCipher) EncryptStream(key, nonce []byte, src io.Reader, dst io.Writer) error {
	aead, err := c.aead(key)
	if err != nil {
		return err
	}
	nonces, err := newStreamNonce(nonce, aead.NonceSize())
	if err != nil {
		return err
	}

	plaintext := make([]byte, cryptoDomain.StreamChunkSize)
	defer cryptoDomain.Zero(plaintext)
	out := make([]byte, 0, cryptoDomain.StreamChunkSize+aead.Overhead())

	for {
		n, readErr := io.ReadFull(src, plaintext)
		last := false
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			last = true
		default:
			return fmt.Errorf("failed to read plaintext stream: %w", readErr)
		}

		if err := sealChunk(aead, nonces, out, plaintext[:n], last, dst); err != nil {
			return err
		}
		if last {
			return nil
		}
	}
}

func sealChunk(aead cipher.AEAD, nonces *streamNonce, out, chunk []byte, last bool, dst io.Writer) error {
	chunkNonce, err := nonces.next(last)
	if err != nil {
		return err
	}
	sealed := aead.Seal(out[:0], chunkNonce, chunk, nil)
	if _, err := dst.Write(sealed); err != nil {
		return fmt.Errorf("failed to write ciphertext stream: %w", err)
	}
	return nil
}

// DecryptStream reads src in StreamChunkSize+TagSize chunks. A full chunk is a regular
// chunk, a short chunk is the last one, and a clean EOF before the last chunk means the
// stream was truncated.
func (c *aeadCipher) DecryptStream(key, nonce []byte, src io.Reader, dst io.Writer) error {
	aead, err := c.aead(key)
	if err != nil {
		return err
	}
	nonces, err := newStreamNonce(nonce, aead.NonceSize())
	if err != nil {
		return err
	}

	ciphertext := make([]byte, cryptoDomain.StreamChunkSize+aead.Overhead())
	plaintext := make([]byte, 0, cryptoDomain.StreamChunkSize)
	defer func() { cryptoDomain.Zero(plaintext[:cap(plaintext)]) }()

	for {
		n, readErr := io.ReadFull(src, ciphertext)
		last := false
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.ErrUnexpectedEOF):
			last = true
		case errors.Is(readErr, io.EOF):
			return cryptoDomain.ErrStreamTruncated
		default:
			return fmt.Errorf("failed to read ciphertext stream: %w", readErr)
		}

		chunkNonce, err := nonces.next(last)
		if err != nil {
			return err
		}
		opened, err := aead.Open(plaintext[:0], chunkNonce, ciphertext[:n], nil)
		if err != nil {
			return cryptoDomain.ErrDecryptionFailed
		}
		if _, err := dst.Write(opened); err != nil {
			return fmt.Errorf("failed to write plaintext stream: %w", err)
		}
		if last {
			return nil
		}
	}
}
