package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/pandorica/internal/crypto/http/dto"
	cryptoService "github.com/allisson/pandorica/internal/crypto/service"
	"github.com/allisson/pandorica/internal/httputil"
	customValidation "github.com/allisson/pandorica/internal/validation"
)

// PasswordHandler hashes and verifies passwords with the configured hasher.
type PasswordHandler struct {
	hasher cryptoService.PasswordHasher
	logger *slog.Logger
}

// NewPasswordHandler creates a new password handler.
func NewPasswordHandler(hasher cryptoService.PasswordHasher, logger *slog.Logger) *PasswordHandler {
	return &PasswordHandler{hasher: hasher, logger: logger}
}

// HashHandler returns an encoded hash of the password.
// POST /v1/passwords/hash
func (h *PasswordHandler) HashHandler(c *gin.Context) {
	var req dto.HashPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	hash, err := h.hasher.Hash([]byte(req.Password))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.HashPasswordResponse{Hash: hash})
}

// VerifyHandler checks a password against a hash. A mismatch is a 200 with valid=false;
// a hash the hasher cannot parse is a 422.
// POST /v1/passwords/verify
func (h *PasswordHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	valid, err := h.hasher.Verify([]byte(req.Password), req.Hash)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyPasswordResponse{Valid: valid})
}
