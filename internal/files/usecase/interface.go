// Package usecase implements encrypted file storage on top of envelope encryption.
package usecase

import (
	"context"
	"io"

	filesDomain "github.com/allisson/pandorica/internal/files/domain"
)

// FileRepository persists ciphertext objects and their wrapped DEKs.
type FileRepository interface {
	// NewWriter opens a writer for a new object. The object becomes visible when the
	// writer is closed; cancelling ctx before Close discards it.
	NewWriter(ctx context.Context, file *filesDomain.File, dek []byte) (io.WriteCloser, error)

	// Stat returns the file description and its serialized DEK. Returns ErrFileNotFound
	// if no object exists under name.
	Stat(ctx context.Context, name string) (*filesDomain.File, []byte, error)

	// Open returns a reader over the stored ciphertext.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// FileUseCase stores and retrieves files encrypted with a per-file DEK.
type FileUseCase interface {
	// Upload stream-encrypts src under name. An existing object is replaced only when the
	// whole upload succeeds.
	Upload(ctx context.Context, name, contentType string, src io.Reader) (*filesDomain.File, error)

	// Download decrypts the object into dst. On error the bytes already written to dst
	// must be discarded.
	Download(ctx context.Context, name string, dst io.Writer) error

	// Stat returns the description of a stored file without reading it.
	Stat(ctx context.Context, name string) (*filesDomain.File, error)

	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}
