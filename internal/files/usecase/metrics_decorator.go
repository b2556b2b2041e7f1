package usecase

import (
	"context"
	"io"
	"time"

	filesDomain "github.com/allisson/pandorica/internal/files/domain"
	"github.com/allisson/pandorica/internal/metrics"
)

// fileUseCaseWithMetrics decorates FileUseCase with metrics instrumentation.
type fileUseCaseWithMetrics struct {
	next    FileUseCase
	metrics metrics.BusinessMetrics
}

// NewFileUseCaseWithMetrics wraps a FileUseCase with metrics recording.
func NewFileUseCaseWithMetrics(useCase FileUseCase, m metrics.BusinessMetrics) FileUseCase {
	return &fileUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (f *fileUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "files", operation, status)
	f.metrics.RecordDuration(ctx, "files", operation, time.Since(start), status)
}

func (f *fileUseCaseWithMetrics) Upload(
	ctx context.Context,
	name, contentType string,
	src io.Reader,
) (*filesDomain.File, error) {
	start := time.Now()
	file, err := f.next.Upload(ctx, name, contentType, src)
	f.record(ctx, "file_upload", start, err)
	return file, err
}

func (f *fileUseCaseWithMetrics) Download(ctx context.Context, name string, dst io.Writer) error {
	start := time.Now()
	err := f.next.Download(ctx, name, dst)
	f.record(ctx, "file_download", start, err)
	return err
}

func (f *fileUseCaseWithMetrics) Stat(ctx context.Context, name string) (*filesDomain.File, error) {
	start := time.Now()
	file, err := f.next.Stat(ctx, name)
	f.record(ctx, "file_stat", start, err)
	return file, err
}

func (f *fileUseCaseWithMetrics) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := f.next.Delete(ctx, name)
	f.record(ctx, "file_delete", start, err)
	return err
}

func (f *fileUseCaseWithMetrics) Exists(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	exists, err := f.next.Exists(ctx, name)
	f.record(ctx, "file_exists", start, err)
	return exists, err
}
