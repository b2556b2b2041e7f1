// Package http exposes encrypted file storage over HTTP. Bodies are streamed in both
// directions; nothing is buffered whole in memory.
package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allisson/pandorica/internal/files/http/dto"
	filesUseCase "github.com/allisson/pandorica/internal/files/usecase"
	"github.com/allisson/pandorica/internal/httputil"
)

// FileHandler handles uploads and downloads of encrypted files.
type FileHandler struct {
	fileUseCase filesUseCase.FileUseCase
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler.
func NewFileHandler(fileUseCase filesUseCase.FileUseCase, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileUseCase: fileUseCase,
		logger:      logger,
	}
}

// fileName extracts the object name from the catch-all route parameter.
func fileName(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("name"), "/")
}

// UploadHandler stores the raw request body encrypted under a fresh DEK.
// PUT /v1/files/*name - Returns 201 Created with the file metadata.
func (h *FileHandler) UploadHandler(c *gin.Context) {
	file, err := h.fileUseCase.Upload(
		c.Request.Context(),
		fileName(c),
		c.GetHeader("Content-Type"),
		c.Request.Body,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapFileToResponse(file))
}

// DownloadHandler streams the decrypted file.
// GET /v1/files/*name
//
// Content-Length is the plaintext size. A failure after the first chunk has been sent
// cannot change the status, so the connection is cut short and the client sees a
// truncated body.
func (h *FileHandler) DownloadHandler(c *gin.Context) {
	ctx := c.Request.Context()
	name := fileName(c)

	file, err := h.fileUseCase.Stat(ctx, name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	setFileHeaders(c, file.ContentType, file.Size)
	c.Status(http.StatusOK)

	if err := h.fileUseCase.Download(ctx, name, c.Writer); err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Length")
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
		h.logger.Error("file download aborted",
			slog.String("name", name),
			slog.Int("bytes_written", c.Writer.Size()),
			slog.Any("error", err),
		)
		c.Abort()
	}
}

// HeadHandler returns the file headers without a body.
// HEAD /v1/files/*name
func (h *FileHandler) HeadHandler(c *gin.Context) {
	file, err := h.fileUseCase.Stat(c.Request.Context(), fileName(c))
	if err != nil {
		c.Status(httputil.StatusCode(err))
		return
	}

	setFileHeaders(c, file.ContentType, file.Size)
	c.Status(http.StatusOK)
}

// DeleteHandler removes a file.
// DELETE /v1/files/*name - Returns 204 No Content.
func (h *FileHandler) DeleteHandler(c *gin.Context) {
	if err := h.fileUseCase.Delete(c.Request.Context(), fileName(c)); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func setFileHeaders(c *gin.Context, contentType string, size int64) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Header("X-Content-Type-Options", "nosniff")
}
