package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/pandorica/internal/crypto/usecase"
	apperrors "github.com/allisson/pandorica/internal/errors"
	filesDomain "github.com/allisson/pandorica/internal/files/domain"
)

type fileUseCase struct {
	envelope  cryptoUseCase.EnvelopeUseCase
	fileRepo  FileRepository
	algorithm cryptoDomain.Algorithm
	logger    *slog.Logger
}

// NewFileUseCase creates a FileUseCase. algorithm is recorded on every object so a
// reader can tell which cipher produced it.
func NewFileUseCase(
	envelope cryptoUseCase.EnvelopeUseCase,
	fileRepo FileRepository,
	algorithm cryptoDomain.Algorithm,
	logger *slog.Logger,
) FileUseCase {
	return &fileUseCase{
		envelope:  envelope,
		fileRepo:  fileRepo,
		algorithm: algorithm,
		logger:    logger,
	}
}

func (f *fileUseCase) Upload(
	ctx context.Context,
	name, contentType string,
	src io.Reader,
) (*filesDomain.File, error) {
	if err := filesDomain.ValidateName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = filesDomain.DefaultContentType
	}

	file := &filesDomain.File{
		Name:        name,
		ContentType: contentType,
		Algorithm:   f.algorithm,
	}

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	counter := &countingReader{r: src}
	var w io.WriteCloser
	err := f.envelope.EncryptStream(ctx, counter, func(dek []byte) (io.Writer, error) {
		var err error
		w, err = f.fileRepo.NewWriter(writeCtx, file, dek)
		return w, err
	})
	if err != nil {
		if w != nil {
			// Abort: the partial object must never become visible.
			cancel()
			_ = w.Close()
		}
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	file.Size = counter.n
	f.logger.Info("file uploaded",
		slog.String("name", name),
		slog.Int64("size", file.Size),
	)
	return file, nil
}

func (f *fileUseCase) Download(ctx context.Context, name string, dst io.Writer) error {
	if err := filesDomain.ValidateName(name); err != nil {
		return err
	}

	file, dek, err := f.fileRepo.Stat(ctx, name)
	if err != nil {
		return err
	}
	// Objects without the metadata predate it; the DEK still authenticates them.
	if file.Algorithm != "" && file.Algorithm != f.algorithm {
		return apperrors.Wrapf(cryptoDomain.ErrUnsupportedAlgorithm,
			"file %q was encrypted with %s but the configured cipher is %s", name, file.Algorithm, f.algorithm)
	}

	reader, err := f.fileRepo.Open(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	return f.envelope.DecryptStream(ctx, dek, reader, dst)
}

func (f *fileUseCase) Stat(ctx context.Context, name string) (*filesDomain.File, error) {
	if err := filesDomain.ValidateName(name); err != nil {
		return nil, err
	}

	file, _, err := f.fileRepo.Stat(ctx, name)
	return file, err
}

func (f *fileUseCase) Delete(ctx context.Context, name string) error {
	if err := filesDomain.ValidateName(name); err != nil {
		return err
	}

	if err := f.fileRepo.Delete(ctx, name); err != nil {
		return err
	}

	f.logger.Info("file deleted", slog.String("name", name))
	return nil
}

func (f *fileUseCase) Exists(ctx context.Context, name string) (bool, error) {
	if err := filesDomain.ValidateName(name); err != nil {
		return false, err
	}
	return f.fileRepo.Exists(ctx, name)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
