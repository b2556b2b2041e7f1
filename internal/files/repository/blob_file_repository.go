// Package repository stores encrypted files in a gocloud.dev blob bucket.
//
// The bucket holds ciphertext only. The wrapped DEK and the cipher algorithm travel as
// object metadata, so an object is self-describing and can be read back after the
// master key that wrapped its DEK has been rotated.
package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	"gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/errors"
	filesDomain "github.com/allisson/pandorica/internal/files/domain"
)

// Provider names accepted by OpenBucket.
const (
	ProviderMemory = "memory"
	ProviderLocal  = "local"
	ProviderBucket = "bucket"
)

// BucketConfig selects the blob backend.
type BucketConfig struct {
	Provider  string
	LocalPath string
	BucketURL string
}

// OpenBucket opens the bucket selected by cfg. "bucket" accepts any URL a linked driver
// understands (s3://, gs://, azblob://, file://, mem://).
func OpenBucket(ctx context.Context, cfg BucketConfig) (*blob.Bucket, error) {
	switch cfg.Provider {
	case ProviderMemory:
		return memblob.OpenBucket(nil), nil
	case ProviderLocal:
		if err := os.MkdirAll(cfg.LocalPath, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create local file store: %w", err)
		}
		bucket, err := fileblob.OpenBucket(cfg.LocalPath, &fileblob.Options{CreateDir: true})
		if err != nil {
			return nil, fmt.Errorf("failed to open local file store: %w", err)
		}
		return bucket, nil
	case ProviderBucket:
		if cfg.BucketURL == "" {
			return nil, errors.Wrap(errors.ErrInvalidInput, "bucket url is required")
		}
		bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open bucket: %w", err)
		}
		return bucket, nil
	default:
		return nil, errors.Wrapf(cryptoDomain.ErrUnknownProvider, "file store %q", cfg.Provider)
	}
}

// BlobFileRepository implements FileRepository on top of a blob bucket.
type BlobFileRepository struct {
	bucket *blob.Bucket
}

// NewBlobFileRepository creates a BlobFileRepository. The caller keeps ownership of bucket.
func NewBlobFileRepository(bucket *blob.Bucket) *BlobFileRepository {
	return &BlobFileRepository{bucket: bucket}
}

// NewWriter opens a blob writer carrying the DEK and algorithm as metadata. Cancel ctx
// before Close to abort the write.
func (r *BlobFileRepository) NewWriter(
	ctx context.Context,
	file *filesDomain.File,
	dek []byte,
) (io.WriteCloser, error) {
	w, err := r.bucket.NewWriter(ctx, file.Name, &blob.WriterOptions{
		ContentType: file.ContentType,
		Metadata: map[string]string{
			filesDomain.MetadataDek:       base64.StdEncoding.EncodeToString(dek),
			filesDomain.MetadataAlgorithm: string(file.Algorithm),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open blob writer: %w", err)
	}
	return w, nil
}

// Stat returns the file description and its serialized DEK.
func (r *BlobFileRepository) Stat(ctx context.Context, name string) (*filesDomain.File, []byte, error) {
	attrs, err := r.bucket.Attributes(ctx, name)
	if err != nil {
		return nil, nil, mapBlobError(err)
	}

	encoded, ok := attrs.Metadata[filesDomain.MetadataDek]
	if !ok {
		return nil, nil, filesDomain.ErrMissingDek
	}
	dek, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidDekEncoding, err)
	}

	return &filesDomain.File{
		Name:        name,
		ContentType: attrs.ContentType,
		Size:        filesDomain.PlaintextSize(attrs.Size),
		Algorithm:   cryptoDomain.Algorithm(attrs.Metadata[filesDomain.MetadataAlgorithm]),
		ModTime:     attrs.ModTime.UTC(),
	}, dek, nil
}

// Open returns a reader over the stored ciphertext.
func (r *BlobFileRepository) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	reader, err := r.bucket.NewReader(ctx, name, nil)
	if err != nil {
		return nil, mapBlobError(err)
	}
	return reader, nil
}

// Delete removes an object.
func (r *BlobFileRepository) Delete(ctx context.Context, name string) error {
	if err := r.bucket.Delete(ctx, name); err != nil {
		return mapBlobError(err)
	}
	return nil
}

// Exists reports whether an object exists under name.
func (r *BlobFileRepository) Exists(ctx context.Context, name string) (bool, error) {
	exists, err := r.bucket.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check blob: %w", err)
	}
	return exists, nil
}

func mapBlobError(err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return filesDomain.ErrFileNotFound
	}
	return fmt.Errorf("blob storage error: %w", err)
}
