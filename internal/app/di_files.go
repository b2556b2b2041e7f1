package app

import (
	"context"
	"fmt"

	"gocloud.dev/blob"

	filesRepository "github.com/allisson/pandorica/internal/files/repository"
	filesUseCase "github.com/allisson/pandorica/internal/files/usecase"
)

type filesComponents struct {
	bucket      lazy[*blob.Bucket]
	fileRepo    lazy[filesUseCase.FileRepository]
	fileUseCase lazy[filesUseCase.FileUseCase]
}

// Bucket returns the blob bucket holding encrypted files.
func (c *Container) Bucket() (*blob.Bucket, error) {
	return c.bucket.get(func() (*blob.Bucket, error) {
		bucket, err := filesRepository.OpenBucket(context.Background(), filesRepository.BucketConfig{
			Provider:  c.config.FilesystemProvider,
			LocalPath: c.config.FilesystemLocalPath,
			BucketURL: c.config.FilesystemBucketURL,
		})
		if err != nil {
			return nil, err
		}
		c.onShutdown("file store", func(context.Context) error { return bucket.Close() })
		return bucket, nil
	})
}

// FileRepository returns the blob-backed file repository.
func (c *Container) FileRepository() (filesUseCase.FileRepository, error) {
	return c.fileRepo.get(func() (filesUseCase.FileRepository, error) {
		bucket, err := c.Bucket()
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return filesRepository.NewBlobFileRepository(bucket), nil
	})
}

// FileUseCase returns the encrypted file storage use case.
func (c *Container) FileUseCase() (filesUseCase.FileUseCase, error) {
	return c.fileUseCase.get(func() (filesUseCase.FileUseCase, error) {
		envelope, err := c.EnvelopeUseCase()
		if err != nil {
			return nil, err
		}
		fileRepo, err := c.FileRepository()
		if err != nil {
			return nil, err
		}
		registry, err := c.Registry()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := filesUseCase.NewFileUseCase(envelope, fileRepo, registry.Cipher.Algorithm(), c.Logger())
		return filesUseCase.NewFileUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}
