package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	filesDomain "github.com/allisson/pandorica/internal/files/domain"
	"github.com/allisson/pandorica/internal/files/http/dto"
	"github.com/allisson/pandorica/internal/files/usecase/mocks"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestRouter(t *testing.T) (*gin.Engine, *mocks.MockFileUseCase) {
	t.Helper()

	fileUseCase := &mocks.MockFileUseCase{}
	t.Cleanup(func() { fileUseCase.AssertExpectations(t) })

	handler := NewFileHandler(fileUseCase, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	router.PUT("/v1/files/*name", handler.UploadHandler)
	router.GET("/v1/files/*name", handler.DownloadHandler)
	router.HEAD("/v1/files/*name", handler.HeadHandler)
	router.DELETE("/v1/files/*name", handler.DeleteHandler)

	return router, fileUseCase
}

func newTestFile(name string, size int64) *filesDomain.File {
	return &filesDomain.File{
		Name:        name,
		ContentType: "text/csv",
		Size:        size,
		Algorithm:   cryptoDomain.XChaCha20,
		ModTime:     time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileHandler_UploadHandler(t *testing.T) {
	t.Run("Success_NestedName", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Upload", mock.Anything, "exports/2026/users.csv", "text/csv").
			Return(newTestFile("exports/2026/users.csv", 11), nil).
			Once()

		req := httptest.NewRequest(http.MethodPut, "/v1/files/exports/2026/users.csv", strings.NewReader("id,name\n1,a"))
		req.Header.Set("Content-Type", "text/csv")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.FileResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "exports/2026/users.csv", response.Name)
		assert.Equal(t, int64(11), response.Size)
		assert.Equal(t, string(cryptoDomain.XChaCha20), response.Algorithm)
	})

	t.Run("Error_InvalidName", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Upload", mock.Anything, "bad name", "").
			Return(nil, filesDomain.ErrInvalidFileName).
			Once()

		req := httptest.NewRequest(http.MethodPut, "/v1/files/bad%20name", strings.NewReader("x"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestFileHandler_DownloadHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Stat", mock.Anything, "users.csv").Return(newTestFile("users.csv", 11), nil).Once()
		fileUseCase.On("Download", mock.Anything, "users.csv").Return(nil, "id,name\n1,a").Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/users.csv", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "id,name\n1,a", w.Body.String())
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Equal(t, "11", w.Header().Get("Content-Length"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Stat", mock.Anything, "missing.bin").Return(nil, filesDomain.ErrFileNotFound).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/missing.bin", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_TamperedBeforeFirstChunk", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Stat", mock.Anything, "users.csv").Return(newTestFile("users.csv", 11), nil).Once()
		fileUseCase.On("Download", mock.Anything, "users.csv").Return(cryptoDomain.ErrDecryptionFailed, nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/users.csv", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Empty(t, w.Header().Get("Content-Length"))
		assert.Contains(t, w.Body.String(), "invalid_input")
	})

	t.Run("Error_TamperedAfterFirstChunk", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Stat", mock.Anything, "users.csv").Return(newTestFile("users.csv", 20480), nil).Once()
		fileUseCase.On("Download", mock.Anything, "users.csv").
			Return(cryptoDomain.ErrStreamTruncated, "first chunk").
			Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/users.csv", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "20480", w.Header().Get("Content-Length"))
		assert.Equal(t, "first chunk", w.Body.String())
	})
}

func TestFileHandler_HeadHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Stat", mock.Anything, "users.csv").Return(newTestFile("users.csv", 11), nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/v1/files/users.csv", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "11", w.Header().Get("Content-Length"))
		assert.Empty(t, w.Body.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Stat", mock.Anything, "missing.bin").Return(nil, filesDomain.ErrFileNotFound).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/v1/files/missing.bin", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFileHandler_DeleteHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Delete", mock.Anything, "users.csv").Return(nil).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/files/users.csv", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		router, fileUseCase := setupTestRouter(t)

		fileUseCase.On("Delete", mock.Anything, "users.csv").Return(filesDomain.ErrFileNotFound).Once()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/files/users.csv", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
