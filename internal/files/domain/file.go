// Package domain defines encrypted file objects kept in blob storage.
package domain

import (
	"regexp"
	"strings"
	"time"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/errors"
)

// Blob metadata keys.
const (
	MetadataDek       = "dek"
	MetadataAlgorithm = "algorithm"
)

// DefaultContentType is used when an upload does not name one.
const DefaultContentType = "application/octet-stream"

var (
	// ErrFileNotFound indicates no object exists under the requested name.
	ErrFileNotFound = errors.Wrap(errors.ErrNotFound, "file not found")

	// ErrInvalidFileName indicates a name outside the accepted character set or with a
	// ".." segment.
	ErrInvalidFileName = errors.Wrap(errors.ErrInvalidInput, "invalid file name")

	// ErrMissingDek indicates an object without DEK metadata; it was not written by
	// this service and can't be decrypted.
	ErrMissingDek = errors.Wrap(errors.ErrInvalidInput, "file has no dek metadata")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._/-]{1,255}$`)

// File describes a stored, encrypted object. Size is the plaintext size.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Algorithm   cryptoDomain.Algorithm
	ModTime     time.Time
}

// ValidateName rejects names that could escape the bucket prefix or that the blob
// drivers would mangle.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return ErrInvalidFileName
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return ErrInvalidFileName
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return ErrInvalidFileName
		}
	}
	return nil
}

// PlaintextSize returns the plaintext size of a stream of ciphertextSize bytes. Every
// stream ends with exactly one short chunk, so the chunk count follows from the length.
func PlaintextSize(ciphertextSize int64) int64 {
	if ciphertextSize < cryptoDomain.TagSize {
		return 0
	}
	const sealedChunk = cryptoDomain.StreamChunkSize + cryptoDomain.TagSize
	chunks := ciphertextSize/sealedChunk + 1
	return ciphertextSize - chunks*cryptoDomain.TagSize
}
