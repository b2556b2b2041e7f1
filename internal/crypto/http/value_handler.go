// Package http exposes envelope encryption, password hashing, key derivation and master
// key administration over HTTP.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/pandorica/internal/crypto/usecase"
	"github.com/allisson/pandorica/internal/httputil"
	customValidation "github.com/allisson/pandorica/internal/validation"
)

// ValueHandler handles envelope encryption of single values.
type ValueHandler struct {
	envelopeUseCase cryptoUseCase.EnvelopeUseCase
	logger          *slog.Logger
}

// NewValueHandler creates a new value handler.
func NewValueHandler(envelopeUseCase cryptoUseCase.EnvelopeUseCase, logger *slog.Logger) *ValueHandler {
	return &ValueHandler{
		envelopeUseCase: envelopeUseCase,
		logger:          logger,
	}
}

// EncryptHandler seals a value under a fresh DEK.
// POST /v1/values/encrypt - Returns 200 OK with the ciphertext and its wrapped DEK.
func (h *ValueHandler) EncryptHandler(c *gin.Context) {
	var req dto.EncryptValueRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	plaintext, err := base64.StdEncoding.DecodeString(req.Plaintext)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 plaintext: %w", err), h.logger)
		return
	}
	defer cryptoDomain.Zero(plaintext)

	value, err := h.envelopeUseCase.Encrypt(c.Request.Context(), plaintext)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEncryptedValueToResponse(value))
}

// DecryptHandler opens a value produced by EncryptHandler.
// POST /v1/values/decrypt - Returns 200 OK with the base64 plaintext.
func (h *ValueHandler) DecryptHandler(c *gin.Context) {
	var req dto.DecryptValueRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ciphertext, err := base64.StdEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 ciphertext: %w", err), h.logger)
		return
	}
	dek, err := base64.StdEncoding.DecodeString(req.Dek)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 dek: %w", err), h.logger)
		return
	}

	value := &cryptoDomain.EncryptedValue{Ciphertext: ciphertext, Dek: dek}
	defer value.Close()

	plaintext, err := h.envelopeUseCase.Decrypt(c.Request.Context(), value)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPlaintextToResponse(plaintext))
}
