package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/pandorica/internal/crypto/domain"
	"github.com/allisson/pandorica/internal/crypto/http/dto"
	cryptoService "github.com/allisson/pandorica/internal/crypto/service"
	cryptoUseCase "github.com/allisson/pandorica/internal/crypto/usecase"
	"github.com/allisson/pandorica/internal/httputil"
	customValidation "github.com/allisson/pandorica/internal/validation"
)

// KeyHandler serves key derivation and master key administration.
type KeyHandler struct {
	keyManagementUseCase cryptoUseCase.KeyManagementUseCase
	keyDeriver           cryptoService.KeyDeriver
	logger               *slog.Logger
}

// NewKeyHandler creates a new key handler.
func NewKeyHandler(
	keyManagementUseCase cryptoUseCase.KeyManagementUseCase,
	keyDeriver cryptoService.KeyDeriver,
	logger *slog.Logger,
) *KeyHandler {
	return &KeyHandler{
		keyManagementUseCase: keyManagementUseCase,
		keyDeriver:           keyDeriver,
		logger:               logger,
	}
}

// DeriveHandler derives key material from an input and a salt.
// POST /v1/keys/derive
func (h *KeyHandler) DeriveHandler(c *gin.Context) {
	var req dto.DeriveKeyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input, err := base64.StdEncoding.DecodeString(req.Input)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 input: %w", err), h.logger)
		return
	}
	defer cryptoDomain.Zero(input)

	salt, err := base64.StdEncoding.DecodeString(req.Salt)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 salt: %w", err), h.logger)
		return
	}

	key, err := h.keyDeriver.Derive(input, salt, req.Length)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(key)

	c.JSON(http.StatusOK, dto.DeriveKeyResponse{Key: base64.StdEncoding.EncodeToString(key)})
}

// StatusHandler returns the active master key metadata.
// GET /v1/master-key
func (h *KeyHandler) StatusHandler(c *gin.Context) {
	status, err := h.keyManagementUseCase.Status(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapMasterKeyStatusToResponse(status))
}

// RotateHandler runs the rotation protocol and returns the resulting status. An active
// key that has not expired is kept.
// POST /v1/master-key/rotate
func (h *KeyHandler) RotateHandler(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.keyManagementUseCase.Rotate(ctx); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status, err := h.keyManagementUseCase.Status(ctx)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("master key rotation checked", slog.String("master_key_id", status.ID.String()))

	c.JSON(http.StatusOK, dto.MapMasterKeyStatusToResponse(status))
}
