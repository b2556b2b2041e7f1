// Package mocks provides mock implementations of the files use case interfaces.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	filesDomain "github.com/allisson/pandorica/internal/files/domain"
)

// MockFileUseCase is a mock implementation of FileUseCase.
type MockFileUseCase struct {
	mock.Mock
}

// Upload mocks the Upload method. The body is drained so handlers see a consumed request.
func (m *MockFileUseCase) Upload(
	ctx context.Context,
	name, contentType string,
	src io.Reader,
) (*filesDomain.File, error) {
	_, _ = io.Copy(io.Discard, src)
	args := m.Called(ctx, name, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filesDomain.File), args.Error(1)
}

// Download mocks the Download method. The expectation's second return value, when a
// string, is written to dst before the error is returned.
func (m *MockFileUseCase) Download(ctx context.Context, name string, dst io.Writer) error {
	args := m.Called(ctx, name)
	if body, ok := args.Get(1).(string); ok {
		_, _ = io.WriteString(dst, body)
	}
	return args.Error(0)
}

// Stat mocks the Stat method.
func (m *MockFileUseCase) Stat(ctx context.Context, name string) (*filesDomain.File, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filesDomain.File), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockFileUseCase) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockFileUseCase) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}
