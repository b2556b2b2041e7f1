package usecase

import (
	"context"
	"io"
	"time"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/metrics"
)

const metricsDomain = "crypto"

func recordMetrics(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// keyManagementUseCaseWithMetrics decorates KeyManagementUseCase with metrics instrumentation.
type keyManagementUseCaseWithMetrics struct {
	next    KeyManagementUseCase
	metrics metrics.BusinessMetrics
}

// NewKeyManagementUseCaseWithMetrics wraps a KeyManagementUseCase with metrics recording.
func NewKeyManagementUseCaseWithMetrics(
	useCase KeyManagementUseCase,
	m metrics.BusinessMetrics,
) KeyManagementUseCase {
	return &keyManagementUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (k *keyManagementUseCaseWithMetrics) Init(ctx context.Context) error {
	start := time.Now()
	err := k.next.Init(ctx)
	recordMetrics(ctx, k.metrics, "master_key_init", start, err)
	return err
}

func (k *keyManagementUseCaseWithMetrics) Rotate(ctx context.Context) error {
	start := time.Now()
	err := k.next.Rotate(ctx)
	recordMetrics(ctx, k.metrics, "master_key_rotate", start, err)
	return err
}

func (k *keyManagementUseCaseWithMetrics) GenerateDek(ctx context.Context) (*cryptoDomain.Dek, error) {
	start := time.Now()
	dek, err := k.next.GenerateDek(ctx)
	recordMetrics(ctx, k.metrics, "dek_generate", start, err)
	return dek, err
}

func (k *keyManagementUseCaseWithMetrics) DecryptDek(
	ctx context.Context,
	dek *cryptoDomain.WrappedDek,
) ([]byte, error) {
	start := time.Now()
	key, err := k.next.DecryptDek(ctx, dek)
	recordMetrics(ctx, k.metrics, "dek_decrypt", start, err)
	return key, err
}

func (k *keyManagementUseCaseWithMetrics) Status(ctx context.Context) (*cryptoDomain.MasterKeyStatus, error) {
	start := time.Now()
	status, err := k.next.Status(ctx)
	recordMetrics(ctx, k.metrics, "master_key_status", start, err)
	return status, err
}

func (k *keyManagementUseCaseWithMetrics) Close() {
	k.next.Close()
}

// envelopeUseCaseWithMetrics decorates EnvelopeUseCase with metrics instrumentation.
type envelopeUseCaseWithMetrics struct {
	next    EnvelopeUseCase
	metrics metrics.BusinessMetrics
}

// NewEnvelopeUseCaseWithMetrics wraps an EnvelopeUseCase with metrics recording.
func NewEnvelopeUseCaseWithMetrics(useCase EnvelopeUseCase, m metrics.BusinessMetrics) EnvelopeUseCase {
	return &envelopeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (e *envelopeUseCaseWithMetrics) Encrypt(
	ctx context.Context,
	plaintext []byte,
) (*cryptoDomain.EncryptedValue, error) {
	start := time.Now()
	value, err := e.next.Encrypt(ctx, plaintext)
	recordMetrics(ctx, e.metrics, "value_encrypt", start, err)
	return value, err
}

func (e *envelopeUseCaseWithMetrics) Decrypt(
	ctx context.Context,
	value *cryptoDomain.EncryptedValue,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := e.next.Decrypt(ctx, value)
	recordMetrics(ctx, e.metrics, "value_decrypt", start, err)
	return plaintext, err
}

func (e *envelopeUseCaseWithMetrics) EncryptStream(ctx context.Context, src io.Reader, open StreamOpener) error {
	start := time.Now()
	err := e.next.EncryptStream(ctx, src, open)
	recordMetrics(ctx, e.metrics, "stream_encrypt", start, err)
	return err
}

func (e *envelopeUseCaseWithMetrics) DecryptStream(
	ctx context.Context,
	dek []byte,
	src io.Reader,
	dst io.Writer,
) error {
	start := time.Now()
	err := e.next.DecryptStream(ctx, dek, src, dst)
	recordMetrics(ctx, e.metrics, "stream_decrypt", start, err)
	return err
}
